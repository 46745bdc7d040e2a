// Package filter compiles query criteria into a predicate over
// finalized records. Each criterion is one small composable check; a
// record is relevant only when every configured criterion holds.
package filter

import (
	"strings"

	"logsieve/internal/record"
)

// Criteria is the set of optional filters, combined with logical AND.
// The zero value matches every record.
//
// A record missing the field a criterion inspects never matches that
// criterion: absence is not a wildcard.
type Criteria struct {
	// Levels is the accepted level set, matched case-insensitively
	// against the level token stored on the record.
	Levels []string

	// Keywords match when any one of them occurs as a substring of the
	// full joined record text, continuation lines included.
	Keywords []string

	// Thread matches by substring containment on the thread field.
	Thread string

	// SinceMs and UntilMs bound the parsed timestamp inclusively.
	SinceMs *int64
	UntilMs *int64

	// CaseSensitive switches keyword and thread matching to exact case.
	// Level matching ignores case regardless.
	CaseSensitive bool
}

// recordFilter is one composable check over a finalized record.
type recordFilter func(*record.Record) bool

// Predicate compiles the criteria into a single predicate. Cheap field
// checks run before the full-text keyword scan so most irrelevant
// records are rejected without ever joining their lines.
func (c Criteria) Predicate() func(*record.Record) bool {
	var filters []recordFilter
	if len(c.Levels) > 0 {
		filters = append(filters, levelFilter(c.Levels))
	}
	if c.SinceMs != nil || c.UntilMs != nil {
		filters = append(filters, timeFilter(c.SinceMs, c.UntilMs))
	}
	if c.Thread != "" {
		filters = append(filters, threadFilter(c.Thread, c.CaseSensitive))
	}
	if len(c.Keywords) > 0 {
		filters = append(filters, keywordFilter(c.Keywords, c.CaseSensitive))
	}
	return func(rec *record.Record) bool {
		for _, f := range filters {
			if !f(rec) {
				return false
			}
		}
		return true
	}
}

func levelFilter(levels []string) recordFilter {
	set := make(map[string]struct{}, len(levels))
	for _, l := range levels {
		set[strings.ToLower(l)] = struct{}{}
	}
	return func(rec *record.Record) bool {
		if rec.Level == "" {
			return false
		}
		_, ok := set[strings.ToLower(rec.Level)]
		return ok
	}
}

func timeFilter(since, until *int64) recordFilter {
	return func(rec *record.Record) bool {
		if rec.TimestampMs == nil {
			return false
		}
		ts := *rec.TimestampMs
		if since != nil && ts < *since {
			return false
		}
		if until != nil && ts > *until {
			return false
		}
		return true
	}
}

func threadFilter(needle string, caseSensitive bool) recordFilter {
	if caseSensitive {
		return func(rec *record.Record) bool {
			return rec.Thread != "" && strings.Contains(rec.Thread, needle)
		}
	}
	lower := strings.ToLower(needle)
	return func(rec *record.Record) bool {
		return rec.Thread != "" && strings.Contains(strings.ToLower(rec.Thread), lower)
	}
}

func keywordFilter(keywords []string, caseSensitive bool) recordFilter {
	if caseSensitive {
		return func(rec *record.Record) bool {
			text := rec.Text()
			for _, k := range keywords {
				if strings.Contains(text, k) {
					return true
				}
			}
			return false
		}
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return func(rec *record.Record) bool {
		text := rec.LowerText()
		for _, k := range lowered {
			if strings.Contains(text, k) {
				return true
			}
		}
		return false
	}
}
