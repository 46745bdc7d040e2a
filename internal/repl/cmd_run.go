package repl

import (
	"fmt"
	"strings"

	"logsieve/internal/render"
	"logsieve/internal/window"
)

// cmdRun runs the current criteria over the loaded records. Any settings
// given as arguments are applied first and persist for later runs.
func (r *REPL) cmdRun(out *strings.Builder, args []string) {
	if len(args) > 0 && !r.applySettings(out, args) {
		return
	}

	printer := render.NewHuman(out, r.color)
	win := window.New(r.criteria.Predicate(), printer.Print, r.before, r.after)

	for _, rec := range r.records {
		if err := win.Offer(rec); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
	}

	fmt.Fprintf(out, "--- %d of %d records matched, %d emitted ---\n",
		win.Matches(), len(r.records), win.Emitted())
}
