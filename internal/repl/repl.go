// Package repl provides an interactive query loop over one loaded index
// file. Criteria persist between runs, so a session narrows a query step
// by step without re-reading the index.
//
// The REPL owns no goroutines. Every command runs to completion on the
// caller's goroutine against the records loaded at construction time.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"logsieve/internal/filter"
	"logsieve/internal/index"
	"logsieve/internal/logging"
	"logsieve/internal/record"
)

// REPL holds a fully-loaded index and the criteria the next run will use.
type REPL struct {
	path    string
	meta    *index.Meta
	records []*record.Record

	// I/O
	in  *bufio.Scanner
	out io.Writer

	// Criteria for the next run
	criteria filter.Criteria
	before   int
	after    int

	color  bool
	logger *slog.Logger
}

// New loads the index at path into memory and returns a REPL reading
// commands from in and writing results to out. Color applies to run
// output only.
func New(path string, in io.Reader, out io.Writer, color bool, logger *slog.Logger) (*REPL, error) {
	logger = logging.Default(logger).With("component", "repl")

	idx, err := index.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = idx.Close() }()

	var records []*record.Record
	for rec, err := range idx.Records() {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	meta := idx.Meta()
	if meta != nil {
		if stale, reason := meta.Stale(meta.File); stale {
			logger.Warn("index may be stale, results reflect the file as it was indexed",
				"index", path, "reason", reason)
		}
	}

	return &REPL{
		path:    path,
		meta:    meta,
		records: records,
		in:      bufio.NewScanner(in),
		out:     out,
		color:   color,
		logger:  logger,
	}, nil
}

// Run starts the REPL loop. It blocks until the user exits or input ends.
func (r *REPL) Run() error {
	r.printf("%d records loaded from %s. Type 'help' for commands.\n", len(r.records), r.path)
	r.printf("> ")

	for r.in.Scan() {
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			r.printf("> ")
			continue
		}

		if exit := r.execute(line); exit {
			return nil
		}

		r.printf("> ")
	}

	return r.in.Err()
}

// execute parses and executes a single command. Returns true if the REPL
// should exit.
func (r *REPL) execute(line string) bool {
	parts := strings.Fields(line)
	cmd := parts[0]
	args := parts[1:]

	var out strings.Builder
	switch cmd {
	case "help":
		r.cmdHelp(&out)
	case "show":
		r.cmdShow(&out)
	case "set":
		r.cmdSet(&out, args)
	case "clear":
		r.cmdClear(&out, args)
	case "run":
		r.cmdRun(&out, args)
	case "stats":
		r.cmdStats(&out)
	case "exit", "quit":
		return true
	default:
		fmt.Fprintf(&out, "Unknown command: %s. Type 'help' for commands.\n", cmd)
	}

	r.page(out.String())
	return false
}

func (r *REPL) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}
