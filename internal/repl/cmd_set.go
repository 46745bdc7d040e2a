package repl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"logsieve/internal/filter"
	"logsieve/internal/parse"
)

func (r *REPL) cmdSet(out *strings.Builder, args []string) {
	if len(args) == 0 {
		r.cmdShow(out)
		return
	}
	if !r.applySettings(out, args) {
		return
	}
	r.cmdShow(out)
}

// applySettings folds key=value arguments into the criteria. It reports
// false after writing a message when an argument does not parse.
func (r *REPL) applySettings(out *strings.Builder, args []string) bool {
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			fmt.Fprintf(out, "Invalid setting: %s (expected key=value)\n", arg)
			return false
		}

		switch k {
		case "level":
			for _, level := range strings.Split(v, ",") {
				if level = strings.TrimSpace(level); level != "" {
					r.criteria.Levels = append(r.criteria.Levels, level)
				}
			}
		case "keyword":
			r.criteria.Keywords = append(r.criteria.Keywords, v)
		case "thread":
			r.criteria.Thread = v
		case "since", "until":
			ms, err := parse.When(v)
			if err != nil {
				fmt.Fprintf(out, "Invalid %s: %v\n", k, err)
				return false
			}
			if k == "since" {
				r.criteria.SinceMs = &ms
			} else {
				r.criteria.UntilMs = &ms
			}
		case "case":
			b, err := strconv.ParseBool(v)
			if err != nil {
				fmt.Fprintf(out, "Invalid case value: %s (expected true or false)\n", v)
				return false
			}
			r.criteria.CaseSensitive = b
		case "before", "after", "context":
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				fmt.Fprintf(out, "Invalid %s value: %s (expected non-negative integer)\n", k, v)
				return false
			}
			switch k {
			case "before":
				r.before = n
			case "after":
				r.after = n
			default:
				r.before, r.after = n, n
			}
		default:
			fmt.Fprintf(out, "Unknown setting: %s\n", k)
			return false
		}
	}
	return true
}

func (r *REPL) cmdShow(out *strings.Builder) {
	fmt.Fprintf(out, "level=%s\n", strings.Join(r.criteria.Levels, ","))
	fmt.Fprintf(out, "keyword=%s\n", strings.Join(r.criteria.Keywords, ","))
	fmt.Fprintf(out, "thread=%s\n", r.criteria.Thread)
	fmt.Fprintf(out, "since=%s\n", formatWhen(r.criteria.SinceMs))
	fmt.Fprintf(out, "until=%s\n", formatWhen(r.criteria.UntilMs))
	fmt.Fprintf(out, "case=%t\n", r.criteria.CaseSensitive)
	fmt.Fprintf(out, "before=%d after=%d\n", r.before, r.after)
}

func (r *REPL) cmdClear(out *strings.Builder, args []string) {
	if len(args) == 0 {
		r.criteria = filter.Criteria{}
		r.before, r.after = 0, 0
		out.WriteString("Criteria cleared.\n")
		return
	}

	for _, key := range args {
		switch key {
		case "level":
			r.criteria.Levels = nil
		case "keyword":
			r.criteria.Keywords = nil
		case "thread":
			r.criteria.Thread = ""
		case "since":
			r.criteria.SinceMs = nil
		case "until":
			r.criteria.UntilMs = nil
		case "case":
			r.criteria.CaseSensitive = false
		case "before":
			r.before = 0
		case "after":
			r.after = 0
		case "context":
			r.before, r.after = 0, 0
		default:
			fmt.Fprintf(out, "Unknown setting: %s\n", key)
			return
		}
	}
	r.cmdShow(out)
}

func formatWhen(ms *int64) string {
	if ms == nil {
		return ""
	}
	return time.UnixMilli(*ms).Format("2006-01-02 15:04:05.000")
}
