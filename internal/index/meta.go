// Package index persists the records of one pass as newline-delimited
// JSON so later queries can skip raw-text parsing. The first line is a
// meta object identifying the source file; every line after it is one
// record in finalization order, relevant or not.
package index

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// generatedAtLayout pins the meta timestamp to millisecond UTC form.
const generatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Meta is the first line of an index file: the identity of the source
// the records were parsed from. Size and MtimeMs are pointers because
// the line keeps both keys even when a value is unknown (JSON null).
type Meta struct {
	Type        string `json:"type"`
	File        string `json:"file"`
	Size        *int64 `json:"size"`
	MtimeMs     *int64 `json:"mtimeMs"`
	GeneratedAt string `json:"generatedAt"`
}

// NewMeta records the identity of the source file at path, resolved to
// an absolute path and stamped with the current UTC time.
func NewMeta(path string) (Meta, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Meta{}, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Meta{}, fmt.Errorf("stat source: %w", err)
	}
	size := info.Size()
	mtime := info.ModTime().UnixMilli()
	return Meta{
		Type:        "meta",
		File:        abs,
		Size:        &size,
		MtimeMs:     &mtime,
		GeneratedAt: time.Now().UTC().Format(generatedAtLayout),
	}, nil
}

// Stale compares the recorded identity against the live file at path
// and reports whether they disagree, with a short reason. A file that
// cannot be stat'ed counts as stale: the identity cannot be confirmed.
func (m Meta) Stale(path string) (bool, string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return true, fmt.Sprintf("resolve %s: %v", path, err)
	}
	if abs != m.File {
		return true, fmt.Sprintf("recorded source %s, compared against %s", m.File, abs)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return true, fmt.Sprintf("stat source: %v", err)
	}
	if m.MtimeMs != nil && info.ModTime().UnixMilli() != *m.MtimeMs {
		return true, "source modified after the index was generated"
	}
	return false, ""
}
