package repl

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"logsieve/internal/index"
	"logsieve/internal/logging"
	"logsieve/internal/parse"
	"logsieve/internal/record"
	"logsieve/internal/scan"
	"logsieve/internal/window"
)

type discardPrinter struct{}

func (discardPrinter) Print(*record.Record, window.Role) error { return nil }

// buildIndex scans a small fixture log into an index file and returns
// the index path.
func buildIndex(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	src := filepath.Join(dir, "app.log")
	content := strings.Join([]string{
		"2024-01-01 00:00:00 INFO 1 - [main] app.Boot : starting",
		"2024-01-01 00:00:01 ERROR 1 - [worker-1] app.Job : boom",
		"\tat app.Job.run(Job.java:10)",
		"2024-01-01 00:00:02 INFO 1 - [main] app.Boot : recovered",
	}, "\n") + "\n"
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	c, err := parse.NewClassifier("")
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}

	path := filepath.Join(dir, "app.ndjson")
	opts := scan.Options{Classifier: c, Printer: discardPrinter{}, IndexPath: path}
	if _, err := scan.File(context.Background(), src, opts); err != nil {
		t.Fatalf("build index: %v", err)
	}
	return path
}

func runREPL(t *testing.T, path, input string) string {
	t.Helper()
	out := &bytes.Buffer{}
	r, err := New(path, strings.NewReader(input), out, false, logging.Discard())
	if err != nil {
		t.Fatalf("new repl: %v", err)
	}
	if err := r.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String()
}

func TestREPLHelp(t *testing.T) {
	out := runREPL(t, buildIndex(t), "help\nexit\n")

	for _, want := range []string{"Commands:", "run", "set", "Criteria keys:"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q: %s", want, out)
		}
	}
}

func TestREPLRunAll(t *testing.T) {
	out := runREPL(t, buildIndex(t), "run\nexit\n")

	if !strings.Contains(out, "3 records loaded from") {
		t.Errorf("expected load banner: %s", out)
	}
	for _, want := range []string{"starting", "boom", "recovered"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %q: %s", want, out)
		}
	}
	if !strings.Contains(out, "--- 3 of 3 records matched, 3 emitted ---") {
		t.Errorf("expected run footer: %s", out)
	}
}

func TestREPLLevelFilter(t *testing.T) {
	out := runREPL(t, buildIndex(t), "set level=error\nrun\nexit\n")

	if !strings.Contains(out, "boom") {
		t.Errorf("expected matching record: %s", out)
	}
	if !strings.Contains(out, "at app.Job.run") {
		t.Errorf("expected continuation line of the match: %s", out)
	}
	if strings.Contains(out, "starting") {
		t.Errorf("unexpected non-matching record: %s", out)
	}
	if !strings.Contains(out, "--- 1 of 3 records matched, 1 emitted ---") {
		t.Errorf("expected run footer: %s", out)
	}
}

func TestREPLRunInlineContext(t *testing.T) {
	out := runREPL(t, buildIndex(t), "run level=error context=1\nexit\n")

	for _, want := range []string{"starting", "boom", "recovered"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %q: %s", want, out)
		}
	}
	if !strings.Contains(out, "--- 1 of 3 records matched, 3 emitted ---") {
		t.Errorf("expected run footer: %s", out)
	}
}

func TestREPLCriteriaPersistAcrossRuns(t *testing.T) {
	out := runREPL(t, buildIndex(t), "set level=error\nrun\nrun\nexit\n")

	if got := strings.Count(out, "--- 1 of 3 records matched, 1 emitted ---"); got != 2 {
		t.Errorf("expected 2 identical run footers, got %d: %s", got, out)
	}
}

func TestREPLShowAndClear(t *testing.T) {
	t.Run("set shows criteria", func(t *testing.T) {
		out := runREPL(t, buildIndex(t), "set level=error,warn keyword=boom\nexit\n")
		if !strings.Contains(out, "level=error,warn") {
			t.Errorf("expected levels in show output: %s", out)
		}
		if !strings.Contains(out, "keyword=boom") {
			t.Errorf("expected keyword in show output: %s", out)
		}
	})

	t.Run("set formats times", func(t *testing.T) {
		out := runREPL(t, buildIndex(t), "set since=2024-01-01\nexit\n")
		if !strings.Contains(out, "since=2024-01-01 00:00:00.000") {
			t.Errorf("expected formatted since: %s", out)
		}
	})

	t.Run("clear all", func(t *testing.T) {
		out := runREPL(t, buildIndex(t), "set level=error\nclear\nexit\n")
		if !strings.Contains(out, "Criteria cleared.") {
			t.Errorf("expected clear confirmation: %s", out)
		}
	})

	t.Run("clear one key", func(t *testing.T) {
		out := runREPL(t, buildIndex(t), "set level=error keyword=boom\nclear keyword\nrun\nexit\n")
		if !strings.Contains(out, "keyword=boom") {
			t.Errorf("expected keyword before clear: %s", out)
		}
		// Level filter still applies after the keyword is cleared.
		if !strings.Contains(out, "--- 1 of 3 records matched, 1 emitted ---") {
			t.Errorf("expected level-only run footer: %s", out)
		}
	})
}

func TestREPLInvalidSettings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing value", "set level\nexit\n", "Invalid setting: level"},
		{"bad time", "set since=nope\nexit\n", "Invalid since"},
		{"negative context", "set context=-1\nexit\n", "Invalid context value"},
		{"unknown key", "set pager=3\nexit\n", "Unknown setting: pager"},
		{"bad bool", "set case=maybe\nexit\n", "Invalid case value"},
	}
	path := buildIndex(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runREPL(t, path, tt.input)
			if !strings.Contains(out, tt.want) {
				t.Errorf("expected %q in output: %s", tt.want, out)
			}
		})
	}
}

func TestREPLStats(t *testing.T) {
	out := runREPL(t, buildIndex(t), "stats\nexit\n")

	for _, want := range []string{"Records: 3", "Lines:   4", "ERROR", "INFO", "Span:"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q: %s", want, out)
		}
	}
}

func TestREPLUnknownCommand(t *testing.T) {
	out := runREPL(t, buildIndex(t), "wibble\nexit\n")

	if !strings.Contains(out, "Unknown command: wibble") {
		t.Errorf("expected unknown command message: %s", out)
	}
}

func TestREPLExit(t *testing.T) {
	path := buildIndex(t)
	for _, cmd := range []string{"exit", "quit", ""} {
		t.Run("input "+cmd, func(t *testing.T) {
			runREPL(t, path, cmd+"\n")
		})
	}
}

func TestNewMissingIndex(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.ndjson"), strings.NewReader(""), &bytes.Buffer{}, false, logging.Discard())
	if err == nil {
		t.Fatal("expected error for missing index")
	}
}

func TestNewCorruptIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ndjson")
	if err := os.WriteFile(path, []byte("not json\n"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}

	_, err := New(path, strings.NewReader(""), &bytes.Buffer{}, false, logging.Discard())
	if !errors.Is(err, index.ErrCorruptEntry) {
		t.Fatalf("expected ErrCorruptEntry, got %v", err)
	}
}
