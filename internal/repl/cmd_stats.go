package repl

import (
	"strings"

	"logsieve/internal/scan"
)

// cmdStats summarizes the loaded records.
func (r *REPL) cmdStats(out *strings.Builder) {
	sum := scan.NewSummary()
	for _, rec := range r.records {
		sum.Add(rec)
	}
	out.WriteString(sum.String())
}
