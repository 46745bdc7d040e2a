package repl

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// page sends command output through the terminal pager when out is an
// interactive terminal, and writes it through unchanged otherwise.
func (r *REPL) page(output string) {
	if output == "" {
		return
	}
	f, ok := r.out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(r.out, output)
		return
	}
	r.pager(f, output)
}

// pager displays output one page at a time.
// Space or Enter for the next page, q to stop.
func (r *REPL) pager(f *os.File, output string) {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")

	_, height, err := term.GetSize(int(f.Fd()))
	if err != nil {
		fmt.Fprint(f, output)
		return
	}

	// Reserve one line for the prompt
	pageSize := height - 1
	if pageSize < 1 {
		pageSize = 1
	}

	// Put the terminal in raw mode to read single keys
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Fprint(f, output)
		return
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	for idx := 0; idx < len(lines); {
		end := idx + pageSize
		if end > len(lines) {
			end = len(lines)
		}
		for _, line := range lines[idx:end] {
			// Raw mode turns off output post-processing, so the
			// carriage return is explicit.
			fmt.Fprintf(f, "%s\r\n", line)
		}
		idx = end

		if idx >= len(lines) {
			return
		}

		remaining := len(lines) - idx
		fmt.Fprintf(f, "\033[7m -- %d more lines (space/enter: next, q: quit) -- \033[0m", remaining)

		buf := make([]byte, 1)
		if _, err := os.Stdin.Read(buf); err != nil {
			fmt.Fprint(f, "\r\033[K")
			return
		}
		fmt.Fprint(f, "\r\033[K")

		switch buf[0] {
		case 'q', 'Q':
			return
		}
	}
}
