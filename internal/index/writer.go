package index

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"logsieve/internal/record"
)

// Writer appends records to an index file: one meta line, then one line
// per finalized record in arrival order. Writes go to a temp file next
// to the destination; Close renames it into place, so a reader never
// sees a half-written index.
type Writer struct {
	f    *os.File
	cw   io.WriteCloser
	bw   *bufio.Writer
	enc  *json.Encoder
	path string
	tmp  string
	done bool
}

// Create opens a writer for the index at path and writes the meta line.
// The compression codec is chosen by the path's extension.
func Create(path string, meta Meta) (*Writer, error) {
	dir := filepath.Dir(filepath.Clean(path))
	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmp)
	}

	cw, err := newCodecWriter(f, path)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("create index codec: %w", err)
	}

	var bw *bufio.Writer
	if cw != nil {
		bw = bufio.NewWriter(cw)
	} else {
		bw = bufio.NewWriter(f)
	}
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(meta); err != nil {
		cleanup()
		return nil, fmt.Errorf("write index meta: %w", err)
	}

	return &Writer{f: f, cw: cw, bw: bw, enc: enc, path: path, tmp: tmp}, nil
}

// Append writes one finalized record as a single JSON line. The write
// blocks when the sink does, which is all the backpressure a
// single-threaded pass needs.
func (w *Writer) Append(rec *record.Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("append index record: %w", err)
	}
	return nil
}

// Close flushes everything and renames the temp file onto the
// destination. Only a nil return means the index is complete on disk.
func (w *Writer) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.bw.Flush(); err != nil {
		w.discard()
		return fmt.Errorf("flush index: %w", err)
	}
	if w.cw != nil {
		if err := w.cw.Close(); err != nil {
			w.discard()
			return fmt.Errorf("close index codec: %w", err)
		}
	}
	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.tmp)
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.Rename(w.tmp, w.path); err != nil {
		_ = os.Remove(w.tmp)
		return fmt.Errorf("finalize index: %w", err)
	}
	return nil
}

// Abort discards the partial index. It is a no-op after a successful
// Close, so callers can defer it unconditionally.
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.discard()
}

func (w *Writer) discard() {
	_ = w.f.Close()
	_ = os.Remove(w.tmp)
}
