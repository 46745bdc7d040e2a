package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"logsieve/internal/filter"
	"logsieve/internal/logformat"
	"logsieve/internal/parse"
	"logsieve/internal/render"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// filterFlags are the criteria and context flags shared by scan and
// query.
type filterFlags struct {
	levels        []string
	keywords      []string
	thread        string
	since         string
	until         string
	caseSensitive bool
	before        int
	after         int
	context       int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.levels, "level", nil, "levels to match (repeatable or comma-separated)")
	cmd.Flags().StringArrayVar(&f.keywords, "keyword", nil, "text to match anywhere in a record (repeatable, any-of)")
	cmd.Flags().StringVar(&f.thread, "thread", "", "substring of the thread name to match")
	cmd.Flags().StringVar(&f.since, "since", "", "keep records at or after this time")
	cmd.Flags().StringVar(&f.until, "until", "", "keep records at or before this time")
	cmd.Flags().BoolVar(&f.caseSensitive, "case-sensitive", false, "case-sensitive keyword and thread matching")
	cmd.Flags().IntVarP(&f.before, "before", "B", 0, "records of leading context around each match")
	cmd.Flags().IntVarP(&f.after, "after", "A", 0, "records of trailing context around each match")
	cmd.Flags().IntVarP(&f.context, "context", "C", 0, "shorthand for --before N --after N")
}

// criteria converts the raw flag values into filter criteria, parsing
// the time bounds.
func (f *filterFlags) criteria() (filter.Criteria, error) {
	c := filter.Criteria{
		Levels:        f.levels,
		Keywords:      f.keywords,
		Thread:        f.thread,
		CaseSensitive: f.caseSensitive,
	}
	if f.since != "" {
		ms, err := parse.When(f.since)
		if err != nil {
			return c, fmt.Errorf("--since: %w", err)
		}
		c.SinceMs = &ms
	}
	if f.until != "" {
		ms, err := parse.When(f.until)
		if err != nil {
			return c, fmt.Errorf("--until: %w", err)
		}
		c.UntilMs = &ms
	}
	return c, nil
}

// window resolves the before/after counts. --context fills whichever
// side was not set explicitly.
func (f *filterFlags) window(cmd *cobra.Command) (before, after int) {
	before, after = f.before, f.after
	if cmd.Flags().Changed("context") {
		if !cmd.Flags().Changed("before") {
			before = f.context
		}
		if !cmd.Flags().Changed("after") {
			after = f.context
		}
	}
	return before, after
}

// outputFlags select the record printer.
type outputFlags struct {
	format string
	color  string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "output", "o", "human", "output format: human or json")
	cmd.Flags().StringVar(&f.color, "color", "auto", "color output: auto, always, or never")
}

func (f *outputFlags) printer(w io.Writer) (render.Printer, error) {
	switch f.format {
	case "human":
		color, err := f.useColor()
		if err != nil {
			return nil, err
		}
		return render.NewHuman(w, color), nil
	case "json":
		return render.NewJSONLines(w), nil
	default:
		return nil, fmt.Errorf("unknown output format: %q", f.format)
	}
}

// useColor resolves the color mode against stdout, which is where all
// record output goes.
func (f *outputFlags) useColor() (bool, error) {
	switch f.color {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		return term.IsTerminal(int(os.Stdout.Fd())), nil
	default:
		return false, fmt.Errorf("unknown color mode: %q", f.color)
	}
}

// buildClassifier loads the parser configuration when a path is given,
// falling back to the built-in timestamp pattern.
func buildClassifier(configPath string) (*parse.Classifier, error) {
	if configPath == "" {
		return parse.NewClassifier("")
	}
	loader := logformat.Loader{YAML: yaml.Unmarshal}
	cfg, err := loader.Load(configPath)
	if err != nil {
		return nil, err
	}
	return parse.NewClassifier(cfg.StartPattern())
}

// expandArgs expands glob patterns in file arguments. Literal paths and
// "-" pass through untouched so a missing file still errors by name.
func expandArgs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if arg == "-" || !strings.ContainsAny(arg, "*?[{") {
			paths = append(paths, arg)
			continue
		}
		base, pattern := doublestar.SplitPattern(arg)
		matches, err := doublestar.Glob(os.DirFS(base), pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", arg, err)
		}
		for _, m := range matches {
			paths = append(paths, filepath.Join(base, m))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files matched")
	}
	return paths, nil
}
