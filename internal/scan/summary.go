package scan

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"logsieve/internal/record"
)

// Summary aggregates record and line counts, per-level tallies, and the
// covered time span across a set of records.
type Summary struct {
	Records int
	Lines   int
	Levels  map[string]int

	spanSet bool
	firstMs int64
	lastMs  int64
}

// NewSummary returns an empty summary ready to fold records into.
func NewSummary() *Summary {
	return &Summary{Levels: make(map[string]int)}
}

// Add folds one record into the summary. Levels are tallied folded to
// upper case; records without a level count under "(none)".
func (s *Summary) Add(rec *record.Record) {
	s.Records++
	s.Lines += len(rec.Lines)

	level := "(none)"
	if rec.Level != "" {
		level = strings.ToUpper(rec.Level)
	}
	s.Levels[level]++

	if rec.TimestampMs == nil {
		return
	}
	ms := *rec.TimestampMs
	if !s.spanSet {
		s.spanSet = true
		s.firstMs, s.lastMs = ms, ms
		return
	}
	if ms < s.firstMs {
		s.firstMs = ms
	}
	if ms > s.lastMs {
		s.lastMs = ms
	}
}

// Span returns the earliest and latest parsed timestamps seen, in epoch
// milliseconds. ok is false when no record carried a timestamp.
func (s *Summary) Span() (firstMs, lastMs int64, ok bool) {
	return s.firstMs, s.lastMs, s.spanSet
}

// String renders the summary as the stats output block.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Records: %d\n", s.Records)
	fmt.Fprintf(&b, "Lines:   %d\n", s.Lines)
	if first, last, ok := s.Span(); ok {
		const layout = "2006-01-02 15:04:05.000"
		fmt.Fprintf(&b, "Span:    %s .. %s\n",
			time.UnixMilli(first).Format(layout),
			time.UnixMilli(last).Format(layout))
	}
	if len(s.Levels) > 0 {
		b.WriteString("Levels:\n")
		for _, level := range slices.Sorted(maps.Keys(s.Levels)) {
			fmt.Fprintf(&b, "  %-8s %d\n", level, s.Levels[level])
		}
	}
	return b.String()
}
