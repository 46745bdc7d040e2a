// Package parse turns a stream of raw log lines into finalized records:
// it decides where records begin, extracts the structured header fields,
// and joins continuation lines onto the record they belong to.
package parse

import (
	"fmt"
	"regexp"
	"strings"

	"logsieve/internal/record"
)

// FallbackStartPattern recognizes the common "YYYY-MM-DD HH:MM:SS" line
// prefix, with an optional millisecond fraction. It is used when the
// parser configuration names no timestamp pattern of its own.
const FallbackStartPattern = `\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:\.\d{3})?`

// headerLayout is the richer shape tried on every record-starting line:
// timestamp, level token, numeric process id, bracketed thread token,
// then free text. It matches as a whole or not at all.
const headerLayout = `^(?P<ts>%s)\s+(?P<level>[A-Za-z]+)\s+(?P<pid>\d+)\s+-*\s*\[(?P<thread>[^\]]*)\]\s*(?P<rest>.*)$`

// A Classifier decides where records begin and extracts structured
// header fields from the lines that start them. One classifier serves a
// whole pass and is stateless after construction.
type Classifier struct {
	start  *regexp.Regexp
	header *regexp.Regexp

	tsIdx     int
	levelIdx  int
	pidIdx    int
	threadIdx int
	restIdx   int
}

// NewClassifier compiles a classifier around the given timestamp pattern
// fragment. An empty fragment selects FallbackStartPattern. The fragment
// is anchored to the line start; a fragment that does not compile is a
// configuration error.
func NewClassifier(tsPattern string) (*Classifier, error) {
	if tsPattern == "" {
		tsPattern = FallbackStartPattern
	}
	start, err := regexp.Compile("^(?:" + tsPattern + ")")
	if err != nil {
		return nil, fmt.Errorf("compile timestamp pattern: %w", err)
	}
	header, err := regexp.Compile(fmt.Sprintf(headerLayout, "(?:"+tsPattern+")"))
	if err != nil {
		return nil, fmt.Errorf("compile header pattern: %w", err)
	}
	return &Classifier{
		start:     start,
		header:    header,
		tsIdx:     header.SubexpIndex("ts"),
		levelIdx:  header.SubexpIndex("level"),
		pidIdx:    header.SubexpIndex("pid"),
		threadIdx: header.SubexpIndex("thread"),
		restIdx:   header.SubexpIndex("rest"),
	}, nil
}

// IsStart reports whether line begins a new record.
func (c *Classifier) IsStart(line string) bool {
	return c.start.MatchString(line)
}

// newBuilder classifies one record-starting line and opens a builder
// carrying whatever structure the line yielded. A line that starts a
// record without matching any pattern (the implicit first record of a
// headerless input) keeps its whole text as the message.
func (c *Classifier) newBuilder(line string, lineNumber int) *record.Builder {
	if m := c.header.FindStringSubmatch(line); m != nil {
		location, message := splitLocation(m[c.restIdx])
		b := record.NewBuilder(line, message, lineNumber)
		b.TimestampRaw = m[c.tsIdx]
		b.TimestampMs = EpochMs(m[c.tsIdx])
		b.Level = m[c.levelIdx]
		b.PID = m[c.pidIdx]
		b.Thread = m[c.threadIdx]
		b.Location = location
		return b
	}
	if loc := c.start.FindStringIndex(line); loc != nil {
		ts := line[:loc[1]]
		trailing := strings.TrimLeft(line[loc[1]:], " \t")
		b := record.NewBuilder(line, trailing, lineNumber)
		b.TimestampRaw = ts
		b.TimestampMs = EpochMs(ts)
		return b
	}
	return record.NewBuilder(line, line, lineNumber)
}

// splitLocation separates a header's trailing free text into the logger
// location and the message. The wider " : " separator wins over ": ";
// with neither present the whole text is the location and the message
// stays empty.
func splitLocation(rest string) (location, message string) {
	if i := strings.Index(rest, " : "); i >= 0 {
		return rest[:i], rest[i+3:]
	}
	if i := strings.Index(rest, ": "); i >= 0 {
		return rest[:i], rest[i+2:]
	}
	return rest, ""
}
