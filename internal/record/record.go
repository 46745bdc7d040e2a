// Package record defines the unit of filtering and display: one logical
// log entry assembled from a header line and any continuation lines
// attached to it (a stack trace, a wrapped message).
//
// A record exists in two forms. The Builder is the single mutable
// accumulator owned by the assembler while lines are still arriving.
// Finalize turns it into a Record, which is never mutated again: every
// downstream consumer (filter, window, printer, index) only reads it.
package record

import "strings"

// Record is one finalized log record. The exported fields mirror the
// index file's JSON shape exactly; optional fields are empty strings or
// nil pointers when the header line did not supply them.
//
// Lines is the canonical source of truth: the exact raw input lines, in
// order, without trailing newlines. Message and the text caches derive
// from it.
type Record struct {
	Index        int      `json:"index"`
	StartLine    int      `json:"startLine"`
	EndLine      int      `json:"endLine"`
	TimestampRaw string   `json:"timestampRaw,omitempty"`
	TimestampMs  *int64   `json:"timestampMs,omitempty"`
	Level        string   `json:"level,omitempty"`
	PID          string   `json:"pid,omitempty"`
	Thread       string   `json:"thread,omitempty"`
	Location     string   `json:"location,omitempty"`
	Message      string   `json:"message"`
	Lines        []string `json:"lines"`

	// Memoized text forms, computed at most once on first use. Plain
	// fields suffice: a finalized record lives inside one single-threaded
	// pass and is never mutated.
	text    string
	textOK  bool
	lower   string
	lowerOK bool
}

// Text returns the full joined record text: the header line plus every
// continuation line, newline-joined. Memoized.
func (r *Record) Text() string {
	if !r.textOK {
		r.text = strings.Join(r.Lines, "\n")
		r.textOK = true
	}
	return r.text
}

// LowerText returns Text lowercased, for case-insensitive matching.
// Memoized, and only ever computed for records that need it.
func (r *Record) LowerText() string {
	if !r.lowerOK {
		r.lower = strings.ToLower(r.Text())
		r.lowerOK = true
	}
	return r.lower
}

// Builder accumulates the lines of one in-flight record. At most one
// builder is open at any time during a pass.
//
// The structured header fields are exported so the classifier can fill
// whichever ones the header line actually supplied.
type Builder struct {
	StartLine    int
	TimestampRaw string
	TimestampMs  *int64
	Level        string
	PID          string
	Thread       string
	Location     string

	endLine  int
	lines    []string
	msgParts []string
}

// NewBuilder starts a record accumulator from its first raw line.
// messageText is that line's message contribution: the split-off message
// for header lines, the trailing text for timestamp-only lines, or the
// whole line when nothing matched.
func NewBuilder(line, messageText string, lineNumber int) *Builder {
	return &Builder{
		StartLine: lineNumber,
		endLine:   lineNumber,
		lines:     []string{line},
		msgParts:  []string{messageText},
	}
}

// Append attaches a continuation line: it joins both the raw lines and
// the message-contributing lines, and advances the end line number.
func (b *Builder) Append(line string, lineNumber int) {
	b.lines = append(b.lines, line)
	b.msgParts = append(b.msgParts, line)
	b.endLine = lineNumber
}

// Finalize seals the accumulator into an immutable Record carrying the
// given sequence index. The builder must not be used afterwards.
func (b *Builder) Finalize(index int) *Record {
	return &Record{
		Index:        index,
		StartLine:    b.StartLine,
		EndLine:      b.endLine,
		TimestampRaw: b.TimestampRaw,
		TimestampMs:  b.TimestampMs,
		Level:        b.Level,
		PID:          b.PID,
		Thread:       b.Thread,
		Location:     b.Location,
		Message:      strings.Join(b.msgParts, "\n"),
		Lines:        b.lines,
	}
}
