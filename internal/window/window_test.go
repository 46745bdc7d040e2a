package window

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"logsieve/internal/record"
)

// mkRecords builds one record per pattern byte: 'E' records match the
// test filter, anything else does not.
func mkRecords(pattern string) []*record.Record {
	recs := make([]*record.Record, len(pattern))
	for i, ch := range pattern {
		level := "INFO"
		if ch == 'E' {
			level = "ERROR"
		}
		recs[i] = &record.Record{
			Index:     i + 1,
			StartLine: i + 1,
			EndLine:   i + 1,
			Level:     level,
			Lines:     []string{fmt.Sprintf("line %d", i+1)},
		}
	}
	return recs
}

func isError(rec *record.Record) bool { return rec.Level == "ERROR" }

func runWindow(t *testing.T, pattern string, before, after int) (string, *Manager) {
	t.Helper()
	var out []string
	m := New(isError, func(rec *record.Record, role Role) error {
		out = append(out, fmt.Sprintf("%d:%s", rec.Index, role))
		return nil
	}, before, after)
	for _, rec := range mkRecords(pattern) {
		if err := m.Offer(rec); err != nil {
			t.Fatalf("Offer: %v", err)
		}
	}
	return strings.Join(out, " "), m
}

func TestOffer(t *testing.T) {
	tests := []struct {
		name    string
		pattern string // E matches, i does not
		before  int
		after   int
		want    string
	}{
		{"no context", "iEi", 0, 0, "2:match"},
		{"match then after", "Ei", 0, 1, "1:match 2:after"},
		{"after countdown runs out", "Eiii", 0, 2, "1:match 2:after 3:after"},
		{"after restarts on match", "EiEii", 0, 1, "1:match 2:after 3:match 4:after"},
		{"match inside window stays a match", "EEi", 0, 1, "1:match 2:match 3:after"},
		{"before flushes oldest first", "iiEi", 2, 0, "1:before 2:before 3:match"},
		{"before bounded by buffer", "iiiE", 2, 0, "2:before 3:before 4:match"},
		{"before skips already emitted", "iEE", 1, 0, "1:before 2:match 3:match"},
		{"after then before never repeats", "EiE", 1, 1, "1:match 2:after 3:match"},
		{"gap wide enough for both roles", "EiiE", 1, 1, "1:match 2:after 3:before 4:match"},
		{"everything matches", "EEE", 2, 2, "1:match 2:match 3:match"},
		{"nothing matches", "iii", 2, 2, ""},
		{"negative counts treated as zero", "iEi", -1, -1, "2:match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := runWindow(t, tt.pattern, tt.before, tt.after)
			if got != tt.want {
				t.Errorf("emissions = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOfferNeverEmitsTwice(t *testing.T) {
	// Dense matches with wide windows exercise every overlap at once.
	patterns := []string{"EEEEE", "EiEiE", "iEEii", "EiiEE", "iiEEi"}
	for _, pattern := range patterns {
		t.Run(pattern, func(t *testing.T) {
			seen := map[int]int{}
			m := New(isError, func(rec *record.Record, role Role) error {
				seen[rec.Index]++
				return nil
			}, 3, 3)
			for _, rec := range mkRecords(pattern) {
				if err := m.Offer(rec); err != nil {
					t.Fatalf("Offer: %v", err)
				}
			}
			for index, n := range seen {
				if n > 1 {
					t.Errorf("record %d emitted %d times", index, n)
				}
			}
		})
	}
}

func TestOfferPreservesInputOrder(t *testing.T) {
	var order []int
	m := New(isError, func(rec *record.Record, role Role) error {
		order = append(order, rec.Index)
		return nil
	}, 2, 2)
	for _, rec := range mkRecords("iEiiEiiiEi") {
		if err := m.Offer(rec); err != nil {
			t.Fatalf("Offer: %v", err)
		}
	}
	for i := 1; i < len(order); i++ {
		if order[i] <= order[i-1] {
			t.Fatalf("emission order not increasing: %v", order)
		}
	}
}

func TestCounters(t *testing.T) {
	out, m := runWindow(t, "EiEii", 0, 1)
	if m.Matches() != 2 {
		t.Errorf("Matches() = %d, want 2", m.Matches())
	}
	if want := len(strings.Fields(out)); m.Emitted() != want {
		t.Errorf("Emitted() = %d, want %d", m.Emitted(), want)
	}
}

func TestOfferPropagatesEmitError(t *testing.T) {
	sentinel := errors.New("sink closed")
	m := New(isError, func(rec *record.Record, role Role) error {
		return sentinel
	}, 0, 0)
	err := m.Offer(mkRecords("E")[0])
	if !errors.Is(err, sentinel) {
		t.Errorf("Offer = %v, want the emit error", err)
	}
}

func TestRoleString(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleMatch, "match"},
		{RoleBefore, "before"},
		{RoleAfter, "after"},
		{Role(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.role.String(); got != tt.want {
			t.Errorf("Role(%d).String() = %q, want %q", tt.role, got, tt.want)
		}
	}
}
