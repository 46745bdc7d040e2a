// Package scan runs one pass: a record source feeds the filter window,
// every emitted record reaches the printer, and optionally every record
// (relevant or not) is appended to a fresh index. The raw path and the
// index path share this code, so the same criteria against the same
// records produce the same output on either path.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"logsieve/internal/filter"
	"logsieve/internal/index"
	"logsieve/internal/logging"
	"logsieve/internal/parse"
	"logsieve/internal/record"
	"logsieve/internal/render"
	"logsieve/internal/window"
)

// Options configures one pass.
type Options struct {
	// Classifier splits raw input into records. Unused on the index
	// path, where records are already finalized.
	Classifier *parse.Classifier

	// Criteria select the relevant records.
	Criteria filter.Criteria

	// Before and After are the record-level context counts.
	Before int
	After  int

	// Printer receives every emitted record.
	Printer render.Printer

	// IndexPath, when set, makes the pass append every record to a new
	// index file there. Only File supports it.
	IndexPath string

	// Follow keeps the pass alive at end of file, waiting for growth.
	// Only File supports it.
	Follow bool

	// Logger receives sparse lifecycle diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Stats summarizes a finished pass.
type Stats struct {
	Records int
	Matches int
	Emitted int
	Stale   bool
}

// BrokenPipe reports whether err means the consumer closed our output.
// A pass that stops for this reason finished cleanly, not in error.
func BrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe)
}

// File scans the log file at path. With opts.IndexPath set, the pass
// also writes an index; the index only lands (temp file renamed into
// place) when the pass consumed the whole input.
func File(ctx context.Context, path string, opts Options) (Stats, error) {
	logger := logging.Default(opts.Logger).With("component", "scan", "pass", uuid.NewString())

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Stats{}, fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = f.Close() }()

	var src io.Reader = f
	if opts.Follow {
		fw, err := newFollowReader(ctx, f, path, logger)
		if err != nil {
			return Stats{}, fmt.Errorf("watch source: %w", err)
		}
		defer fw.Close()
		src = fw
	}

	var idx *index.Writer
	if opts.IndexPath != "" {
		meta, err := index.NewMeta(path)
		if err != nil {
			return Stats{}, err
		}
		idx, err = index.Create(opts.IndexPath, meta)
		if err != nil {
			return Stats{}, err
		}
		defer idx.Abort()
	}

	logger.Debug("scanning", "path", path, "follow", opts.Follow)
	st, err := run(ctx, parse.Records(src, opts.Classifier), opts, idx)
	if err != nil {
		if BrokenPipe(err) {
			if idx != nil {
				logger.Warn("output closed before end of input, discarding partial index", "index", opts.IndexPath)
			}
			return st, nil
		}
		return st, err
	}

	if idx != nil {
		if err := idx.Close(); err != nil {
			return st, err
		}
	}
	logger.Debug("pass complete", "records", st.Records, "matches", st.Matches, "emitted", st.Emitted)
	return st, nil
}

// Stream scans records from r, typically standard input. Index output
// and follow need a named file, so both are rejected here.
func Stream(ctx context.Context, r io.Reader, opts Options) (Stats, error) {
	if opts.IndexPath != "" {
		return Stats{}, errors.New("index output requires a file source")
	}
	if opts.Follow {
		return Stats{}, errors.New("follow requires a file source")
	}
	logger := logging.Default(opts.Logger).With("component", "scan", "pass", uuid.NewString())

	st, err := run(ctx, parse.Records(r, opts.Classifier), opts, nil)
	if err != nil {
		if BrokenPipe(err) {
			return st, nil
		}
		return st, err
	}
	logger.Debug("pass complete", "records", st.Records, "matches", st.Matches, "emitted", st.Emitted)
	return st, nil
}

// Index replays a stored index through the same filter window. source
// overrides the staleness comparison path; empty means the path the
// meta line recorded. The staleness verdict arrives only after the
// records are fully consumed, matching the forward-only read.
func Index(ctx context.Context, path, source string, opts Options) (Stats, error) {
	logger := logging.Default(opts.Logger).With("component", "query", "pass", uuid.NewString())

	r, err := index.Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer func() { _ = r.Close() }()

	logger.Debug("reading index", "path", path)
	st, err := run(ctx, r.Records(), opts, nil)
	if err != nil {
		if BrokenPipe(err) {
			return st, nil
		}
		return st, err
	}

	if meta := r.Meta(); meta != nil {
		cmp := source
		if cmp == "" {
			cmp = meta.File
		}
		if stale, reason := meta.Stale(cmp); stale {
			st.Stale = true
			logger.Warn("index may be stale, results reflect the file as it was indexed",
				"index", path, "source", cmp, "reason", reason)
		}
	}
	logger.Debug("pass complete", "records", st.Records, "matches", st.Matches, "emitted", st.Emitted)
	return st, nil
}

// run drives records through the window and the optional index tap,
// stopping at the first error or context cancellation. A followed pass
// cancels through its reader instead: end of stream there still
// finalizes and emits the record that was open.
func run(ctx context.Context, records iter.Seq2[*record.Record, error], opts Options, idx *index.Writer) (Stats, error) {
	var st Stats
	win := window.New(opts.Criteria.Predicate(), opts.Printer.Print, opts.Before, opts.After)

	var failure error
	for rec, err := range records {
		if err != nil {
			failure = err
			break
		}
		if !opts.Follow {
			if err := ctx.Err(); err != nil {
				failure = err
				break
			}
		}
		st.Records++
		if idx != nil {
			if err := idx.Append(rec); err != nil {
				failure = err
				break
			}
		}
		if err := win.Offer(rec); err != nil {
			failure = err
			break
		}
	}
	st.Matches = win.Matches()
	st.Emitted = win.Emitted()
	return st, failure
}
