package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// layouts are tried in order against an extracted timestamp token.
// Go's parser accepts a fractional second (dot or comma) after any
// seconds field even when the layout omits it, so the fraction-less
// entries cover "00:00:00.123" and "00:00:00,123" as well.
var layouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05-0700",
	"2006/01/02 15:04:05",
	"02/Jan/2006:15:04:05 -0700",
}

// yearlessLayouts cover BSD syslog style tokens.
var yearlessLayouts = []string{
	"Jan  2 15:04:05",
	"Jan 02 15:04:05",
}

// EpochMs parses a raw timestamp token into epoch milliseconds, or nil
// when no known layout fits. Tokens without zone information are read
// in the local time zone.
func EpochMs(raw string) *int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			ms := ts.UnixMilli()
			return &ms
		}
	}
	if ts, ok := parseYearless(s); ok {
		ms := ts.UnixMilli()
		return &ms
	}
	return nil
}

// When parses a user-supplied time argument into epoch milliseconds.
// It accepts every form record timestamps do, plus a bare date and a
// bare integer of epoch milliseconds.
func When(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if ms := EpochMs(s); ms != nil {
		return *ms, nil
	}
	if ts, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return ts.UnixMilli(), nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	return 0, fmt.Errorf("unrecognized time %q", s)
}

// parseYearless handles tokens with no year field. The current year is
// assumed, rolled back one when that would land in the future.
func parseYearless(s string) (time.Time, bool) {
	for _, layout := range yearlessLayouts {
		ts, err := time.ParseInLocation(layout, s, time.Local)
		if err != nil {
			continue
		}
		now := time.Now()
		ts = ts.AddDate(now.Year(), 0, 0)
		if ts.After(now.Add(24 * time.Hour)) {
			ts = ts.AddDate(-1, 0, 0)
		}
		return ts, true
	}
	return time.Time{}, false
}
