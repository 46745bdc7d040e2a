package index

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"logsieve/internal/record"
)

// ErrCorruptEntry marks an index line that is not valid JSON. Wrapped
// errors carry the file path and 1-based line number.
var ErrCorruptEntry = errors.New("corrupt index entry")

// Reader streams records back out of an index file in stored order.
type Reader struct {
	f    *os.File
	cr   io.ReadCloser
	br   *bufio.Reader
	path string

	meta    *Meta
	pending []byte // first line stashed when it was not a meta line
	line    int
}

// Open opens the index at path and consumes its meta line when one is
// present. The codec is chosen by the path's extension.
func Open(path string) (*Reader, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	cr, err := newCodecReader(f, path)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open index codec: %w", err)
	}

	var br *bufio.Reader
	if cr != nil {
		br = bufio.NewReader(cr)
	} else {
		br = bufio.NewReader(f)
	}

	r := &Reader{f: f, cr: cr, br: br, path: path}
	if err := r.readMeta(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

// Meta returns the index's meta line, or nil when the file carried none.
func (r *Reader) Meta() *Meta { return r.meta }

// Records yields the stored records in order. A line that fails to
// parse ends the iteration with an error wrapping ErrCorruptEntry and
// naming the file and line; records yielded before it remain valid.
func (r *Reader) Records() iter.Seq2[*record.Record, error] {
	return func(yield func(*record.Record, error) bool) {
		if r.pending != nil {
			line := r.pending
			r.pending = nil
			rec, err := decodeEntry(line, r.path, r.line)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		for {
			line, err := r.readLine()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("read index: %w", err))
				return
			}
			r.line++
			rec, derr := decodeEntry(line, r.path, r.line)
			if derr != nil {
				yield(nil, derr)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Close releases the underlying file and codec.
func (r *Reader) Close() error {
	if r.cr != nil {
		_ = r.cr.Close()
	}
	return r.f.Close()
}

// readMeta inspects the first line. A meta-typed line is captured; any
// other first line is stashed and later yielded as the first record.
func (r *Reader) readMeta() error {
	line, err := r.readLine()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	r.line = 1

	var probe struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(line, &probe) == nil && probe.Type == "meta" {
		var m Meta
		if err := json.Unmarshal(line, &m); err != nil {
			return fmt.Errorf("%s:1: %w: %v", r.path, ErrCorruptEntry, err)
		}
		r.meta = &m
		return nil
	}
	r.pending = line
	return nil
}

// readLine returns the next line without its terminator. Lines are read
// through the buffered reader directly so there is no fixed cap on
// record length.
func (r *Reader) readLine() ([]byte, error) {
	line, err := r.br.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			return bytes.TrimSuffix(line, []byte("\r")), nil
		}
		return nil, err
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), nil
}

func decodeEntry(line []byte, path string, n int) (*record.Record, error) {
	var rec record.Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("%s:%d: %w: %v", path, n, ErrCorruptEntry, err)
	}
	return &rec, nil
}
