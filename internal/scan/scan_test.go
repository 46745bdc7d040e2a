package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"logsieve/internal/filter"
	"logsieve/internal/index"
	"logsieve/internal/parse"
	"logsieve/internal/record"
	"logsieve/internal/render"
	"logsieve/internal/window"
)

const sampleInput = "2024-01-01 00:00:00 ERROR 1 - [t1] X.Y : boom\n" +
	"\tat A.b(A.java:1)\n" +
	"2024-01-01 00:00:01 INFO 1 - [t1] X.Y : ok\n"

// capturePrinter records emissions as "index:role" strings.
type capturePrinter struct {
	emissions []string
}

func (p *capturePrinter) Print(rec *record.Record, role window.Role) error {
	p.emissions = append(p.emissions, fmt.Sprintf("%d:%s", rec.Index, role))
	return nil
}

// failPrinter simulates a consumer that closed the pipe.
type failPrinter struct{}

func (failPrinter) Print(*record.Record, window.Role) error {
	return &os.PathError{Op: "write", Path: "|1", Err: syscall.EPIPE}
}

func classifier(t *testing.T) *parse.Classifier {
	t.Helper()
	c, err := parse.NewClassifier("")
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return c
}

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestFileErrorWithAfterContext(t *testing.T) {
	path := writeLog(t, sampleInput)
	printer := &capturePrinter{}

	st, err := File(context.Background(), path, Options{
		Classifier: classifier(t),
		Criteria:   filter.Criteria{Levels: []string{"ERROR"}},
		After:      1,
		Printer:    printer,
	})
	if err != nil {
		t.Fatalf("File: %v", err)
	}

	want := []string{"1:match", "2:after"}
	if strings.Join(printer.emissions, " ") != strings.Join(want, " ") {
		t.Errorf("emissions = %v, want %v", printer.emissions, want)
	}
	if st.Records != 2 || st.Matches != 1 || st.Emitted != 2 {
		t.Errorf("stats = %+v, want 2 records, 1 match, 2 emitted", st)
	}
}

func TestFileKeywordInContinuation(t *testing.T) {
	input := "2024-01-01 00:00:00 ERROR 1 - [t1] X.Y : fail\n" +
		"\tcaused by: boom\n" +
		"2024-01-01 00:00:01 INFO 1 - [t1] X.Y : ok\n"
	path := writeLog(t, input)
	printer := &capturePrinter{}

	_, err := File(context.Background(), path, Options{
		Classifier: classifier(t),
		Criteria:   filter.Criteria{Keywords: []string{"boom"}},
		Printer:    printer,
	})
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if got := strings.Join(printer.emissions, " "); got != "1:match" {
		t.Errorf("emissions = %q, want the record whose continuation holds the keyword", got)
	}
}

func TestFileWritesIndex(t *testing.T) {
	path := writeLog(t, sampleInput)
	indexPath := filepath.Join(filepath.Dir(path), "app.ndjson")

	st, err := File(context.Background(), path, Options{
		Classifier: classifier(t),
		Criteria:   filter.Criteria{Levels: []string{"ERROR"}},
		Printer:    &capturePrinter{},
		IndexPath:  indexPath,
	})
	if err != nil {
		t.Fatalf("File: %v", err)
	}

	r, err := index.Open(indexPath)
	if err != nil {
		t.Fatalf("Open index: %v", err)
	}
	defer r.Close()

	var stored int
	for _, err := range r.Records() {
		if err != nil {
			t.Fatalf("Records: %v", err)
		}
		stored++
	}
	// Every record lands in the index, filtered out or not.
	if stored != st.Records {
		t.Errorf("index holds %d records, want %d", stored, st.Records)
	}
	if meta := r.Meta(); meta == nil {
		t.Error("index is missing its meta line")
	}
}

func TestRawAndIndexPathsAgree(t *testing.T) {
	path := writeLog(t, sampleInput)
	indexPath := filepath.Join(filepath.Dir(path), "app.ndjson")
	criteria := filter.Criteria{Levels: []string{"ERROR"}}

	var rawOut bytes.Buffer
	_, err := File(context.Background(), path, Options{
		Classifier: classifier(t),
		Criteria:   criteria,
		After:      1,
		Printer:    render.NewJSONLines(&rawOut),
		IndexPath:  indexPath,
	})
	if err != nil {
		t.Fatalf("File: %v", err)
	}

	var indexOut bytes.Buffer
	_, err = Index(context.Background(), indexPath, "", Options{
		Criteria: criteria,
		After:    1,
		Printer:  render.NewJSONLines(&indexOut),
	})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}

	if !bytes.Equal(rawOut.Bytes(), indexOut.Bytes()) {
		t.Errorf("paths disagree:\nraw:   %s\nindex: %s", rawOut.String(), indexOut.String())
	}
}

func TestRawAndIndexPathsAgreeHuman(t *testing.T) {
	path := writeLog(t, sampleInput)
	indexPath := filepath.Join(filepath.Dir(path), "app.zst")
	criteria := filter.Criteria{Keywords: []string{"boom"}}

	var rawOut bytes.Buffer
	_, err := File(context.Background(), path, Options{
		Classifier: classifier(t),
		Criteria:   criteria,
		Before:     1,
		Printer:    render.NewHuman(&rawOut, false),
		IndexPath:  indexPath,
	})
	if err != nil {
		t.Fatalf("File: %v", err)
	}

	var indexOut bytes.Buffer
	_, err = Index(context.Background(), indexPath, "", Options{
		Criteria: criteria,
		Before:   1,
		Printer:  render.NewHuman(&indexOut, false),
	})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}

	if !bytes.Equal(rawOut.Bytes(), indexOut.Bytes()) {
		t.Errorf("paths disagree:\nraw:   %s\nindex: %s", rawOut.String(), indexOut.String())
	}
}

func TestIndexStaleWarnsButEmits(t *testing.T) {
	path := writeLog(t, sampleInput)
	indexPath := filepath.Join(filepath.Dir(path), "app.ndjson")

	_, err := File(context.Background(), path, Options{
		Classifier: classifier(t),
		Printer:    &capturePrinter{},
		IndexPath:  indexPath,
	})
	if err != nil {
		t.Fatalf("File: %v", err)
	}

	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	printer := &capturePrinter{}
	st, err := Index(context.Background(), indexPath, "", Options{
		Criteria: filter.Criteria{Levels: []string{"ERROR"}},
		Printer:  printer,
	})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if !st.Stale {
		t.Error("stats should flag the stale index")
	}
	if got := strings.Join(printer.emissions, " "); got != "1:match" {
		t.Errorf("emissions = %q, stale index must still produce results", got)
	}
}

func TestIndexCorruptEntryFails(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "app.ndjson")
	content := `{"type":"meta","file":"/x","size":1,"mtimeMs":1,"generatedAt":"now"}` + "\n" +
		`{"index":1,"startLine":1,"endLine":1,"message":"ok","lines":["ok"]}` + "\n" +
		"garbage\n"
	if err := os.WriteFile(indexPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}

	printer := &capturePrinter{}
	_, err := Index(context.Background(), indexPath, "", Options{Printer: printer})
	if !errors.Is(err, index.ErrCorruptEntry) {
		t.Fatalf("Index = %v, want ErrCorruptEntry", err)
	}
	// Output produced before the corrupt line stays.
	if got := strings.Join(printer.emissions, " "); got != "1:match" {
		t.Errorf("emissions before failure = %q, want 1:match", got)
	}
}

func TestFileBrokenPipeIsClean(t *testing.T) {
	path := writeLog(t, sampleInput)
	indexPath := filepath.Join(filepath.Dir(path), "app.ndjson")

	st, err := File(context.Background(), path, Options{
		Classifier: classifier(t),
		Printer:    failPrinter{},
		IndexPath:  indexPath,
	})
	if err != nil {
		t.Fatalf("File = %v, want clean stop on a closed pipe", err)
	}
	if st.Emitted == 0 {
		t.Error("the first emission should have been attempted")
	}
	// The pass did not reach end of input, so no index may land.
	if _, err := os.Stat(indexPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("partial index landed at %s", indexPath)
	}
}

func TestStreamScansStdinStyleInput(t *testing.T) {
	printer := &capturePrinter{}
	st, err := Stream(context.Background(), strings.NewReader(sampleInput), Options{
		Classifier: classifier(t),
		Criteria:   filter.Criteria{Levels: []string{"INFO"}},
		Printer:    printer,
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if st.Records != 2 || st.Matches != 1 {
		t.Errorf("stats = %+v, want 2 records and 1 match", st)
	}
	if got := strings.Join(printer.emissions, " "); got != "2:match" {
		t.Errorf("emissions = %q, want 2:match", got)
	}
}

func TestStreamRejectsFileOnlyOptions(t *testing.T) {
	if _, err := Stream(context.Background(), strings.NewReader(""), Options{
		Classifier: classifier(t),
		Printer:    &capturePrinter{},
		IndexPath:  "x.ndjson",
	}); err == nil {
		t.Error("Stream should reject index output")
	}
	if _, err := Stream(context.Background(), strings.NewReader(""), Options{
		Classifier: classifier(t),
		Printer:    &capturePrinter{},
		Follow:     true,
	}); err == nil {
		t.Error("Stream should reject follow")
	}
}

func TestFileFollowEndsOnCancel(t *testing.T) {
	path := writeLog(t, sampleInput)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	printer := &capturePrinter{}
	st, err := File(ctx, path, Options{
		Classifier: classifier(t),
		Printer:    printer,
		Follow:     true,
	})
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	// The canceled context turns the first end-of-file wait into end of
	// stream; everything already in the file is still processed.
	if st.Records != 2 {
		t.Errorf("records = %d, want 2", st.Records)
	}
}

func TestFileMissingSource(t *testing.T) {
	_, err := File(context.Background(), filepath.Join(t.TempDir(), "absent.log"), Options{
		Classifier: classifier(t),
		Printer:    &capturePrinter{},
	})
	if err == nil {
		t.Error("expected an error for a missing source")
	}
}
