package parse

import (
	"bufio"
	"fmt"
	"io"
	"iter"

	"logsieve/internal/record"
)

// maxLineBytes caps a single raw line. Lines beyond this abort the pass
// rather than silently splitting a record.
const maxLineBytes = 1024 * 1024

// Records streams finalized records from r in input order. Lines that
// match the classifier's start pattern open a new record; every other
// line continues the open one. The very first line always opens a
// record, so an input of bare continuation lines yields exactly one
// record starting at line 1, and an empty input yields none. The record
// still open at end of input is finalized there.
//
// Sequence indexes are assigned at finalization, starting at 1.
func Records(r io.Reader, c *Classifier) iter.Seq2[*record.Record, error] {
	return func(yield func(*record.Record, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

		var open *record.Builder
		line := 0
		seq := 0
		for scanner.Scan() {
			line++
			text := scanner.Text()
			if open != nil && !c.IsStart(text) {
				open.Append(text, line)
				continue
			}
			if open != nil {
				seq++
				if !yield(open.Finalize(seq), nil) {
					return
				}
			}
			open = c.newBuilder(text, line)
		}
		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("read source: %w", err))
			return
		}
		if open != nil {
			seq++
			yield(open.Finalize(seq), nil)
		}
	}
}
