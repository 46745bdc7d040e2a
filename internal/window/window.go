// Package window decides which records a pass emits: every relevant
// record plus the configured amount of record-level context around it,
// each record at most once, in input order.
package window

import "logsieve/internal/record"

// Role classifies why a record was emitted.
type Role uint8

const (
	// RoleMatch marks a record that satisfied the filter itself.
	RoleMatch Role = iota
	// RoleBefore marks context emitted from the look-back buffer.
	RoleBefore
	// RoleAfter marks context emitted under an active countdown.
	RoleAfter
)

func (r Role) String() string {
	switch r {
	case RoleMatch:
		return "match"
	case RoleBefore:
		return "before"
	case RoleAfter:
		return "after"
	default:
		return "unknown"
	}
}

// EmitFunc receives each qualifying record exactly once, in input
// order. A non-nil error aborts the pass.
type EmitFunc func(rec *record.Record, role Role) error

// Manager holds the look-back buffer and after-context countdown for
// one pass. Memory stays bounded by the buffer size no matter how long
// the input runs. Not safe for concurrent use; one instance per pass.
type Manager struct {
	match  func(*record.Record) bool
	emit   EmitFunc
	before int
	after  int

	buf       []*record.Record // the last `before` records, oldest first
	countdown int
	emitted   map[int]struct{} // sequence indexes already emitted, pruned on eviction
	matches   int
	total     int
}

// New creates a manager for one pass. match decides record relevance,
// emit receives the qualifying records, and before/after are the
// context counts (negative values are treated as zero).
func New(match func(*record.Record) bool, emit EmitFunc, before, after int) *Manager {
	return &Manager{
		match:   match,
		emit:    emit,
		before:  max(before, 0),
		after:   max(after, 0),
		emitted: make(map[int]struct{}),
	}
}

// Offer feeds one finalized record through the window. Records must
// arrive in finalization order.
//
// On a match the buffered look-back records flush first (skipping any
// already emitted), then the record itself goes out; the after-context
// countdown restarts on every match, so overlapping windows extend
// rather than repeat. A record that is both a match and inside an
// active countdown is emitted once, as a match.
func (m *Manager) Offer(rec *record.Record) error {
	isMatch := m.match(rec)

	if isMatch {
		for _, buffered := range m.buf {
			if m.isEmitted(buffered) {
				continue
			}
			if err := m.emitOnce(buffered, RoleBefore); err != nil {
				return err
			}
		}
	}

	if (isMatch || m.countdown > 0) && !m.isEmitted(rec) {
		role := RoleAfter
		if isMatch {
			role = RoleMatch
		}
		if err := m.emitOnce(rec, role); err != nil {
			return err
		}
	}

	if isMatch {
		m.matches++
		m.countdown = m.after
	} else if m.countdown > 0 {
		m.countdown--
	}

	// The record enters the look-back buffer only after its own turn,
	// so it can never flush as its own before-context.
	if m.before > 0 {
		if len(m.buf) == m.before {
			delete(m.emitted, m.buf[0].Index)
			copy(m.buf, m.buf[1:])
			m.buf[m.before-1] = rec
		} else {
			m.buf = append(m.buf, rec)
		}
	}

	return nil
}

// Matches returns how many records satisfied the filter so far.
func (m *Manager) Matches() int { return m.matches }

// Emitted returns how many records went out so far, context included.
func (m *Manager) Emitted() int { return m.total }

func (m *Manager) emitOnce(rec *record.Record, role Role) error {
	// Only buffered records can come up for emission a second time, so
	// the side set tracks just those; it stays no larger than the buffer.
	if m.before > 0 {
		m.emitted[rec.Index] = struct{}{}
	}
	m.total++
	return m.emit(rec, role)
}

func (m *Manager) isEmitted(rec *record.Record) bool {
	_, ok := m.emitted[rec.Index]
	return ok
}
