// Package render turns emitted records into terminal or machine
// output. Printers are fed in emission order and write immediately; a
// blocked or closed destination surfaces as the write error.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"logsieve/internal/record"
	"logsieve/internal/window"
)

// Printer receives each emitted record together with its role.
type Printer interface {
	Print(rec *record.Record, role window.Role) error
}

// Human prints records the way grep prints context: every raw line gets
// a line-number prefix, ':' for match lines and '-' for context lines,
// so output stays greppable and maps straight back to the source file.
type Human struct {
	w     io.Writer
	color bool

	matchPrefix   lipgloss.Style
	contextPrefix lipgloss.Style
	faint         lipgloss.Style
	levels        map[string]lipgloss.Style
}

// NewHuman builds the terminal printer. With color off the output is
// plain bytes, suitable for pipes and for comparing passes.
func NewHuman(w io.Writer, color bool) *Human {
	bold := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Bold(true)
	}
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return &Human{
		w:             w,
		color:         color,
		matchPrefix:   fg("2"),
		contextPrefix: lipgloss.NewStyle().Faint(true),
		faint:         lipgloss.NewStyle().Faint(true),
		levels: map[string]lipgloss.Style{
			"FATAL": bold("1"),
			"ERROR": bold("1"),
			"WARN":  fg("3"),
			"INFO":  fg("2"),
			"DEBUG": fg("4"),
			"TRACE": fg("8"),
		},
	}
}

func (p *Human) Print(rec *record.Record, role window.Role) error {
	sep := ":"
	if role != window.RoleMatch {
		sep = "-"
	}
	for i, line := range rec.Lines {
		prefix := strconv.Itoa(rec.StartLine+i) + sep
		if p.color {
			prefix = p.renderPrefix(prefix, role)
			line = p.renderLine(line, rec.Level, role, i == 0)
		}
		if _, err := fmt.Fprintf(p.w, "%s%s\n", prefix, line); err != nil {
			return err
		}
	}
	return nil
}

func (p *Human) renderPrefix(prefix string, role window.Role) string {
	if role == window.RoleMatch {
		return p.matchPrefix.Render(prefix)
	}
	return p.contextPrefix.Render(prefix)
}

func (p *Human) renderLine(line, level string, role window.Role, header bool) string {
	if role != window.RoleMatch {
		return p.faint.Render(line)
	}
	if header {
		if style, ok := p.levels[strings.ToUpper(level)]; ok {
			return style.Render(line)
		}
	}
	return line
}

// JSONLines writes one JSON object per emitted record: the index record
// shape plus a "role" key naming why the record went out.
type JSONLines struct {
	enc *json.Encoder
}

func NewJSONLines(w io.Writer) *JSONLines {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLines{enc: enc}
}

func (p *JSONLines) Print(rec *record.Record, role window.Role) error {
	return p.enc.Encode(struct {
		Role string `json:"role"`
		*record.Record
	}{Role: role.String(), Record: rec})
}
