package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dukex/composer/pkg/session"
)

// terminal draws the editor on a line-oriented terminal and answers
// confirmations from the same input the shell reads commands from.
type terminal struct {
	in  *bufio.Scanner
	out io.Writer
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	return &terminal{in: bufio.NewScanner(in), out: out}
}

func (t *terminal) Info(message string) {
	fmt.Fprintln(t.out, message)
}

func (t *terminal) Error(message string) {
	fmt.Fprintln(t.out, "error: "+message)
}

// Confirm accepts y or yes. End of input declines.
func (t *terminal) Confirm(prompt string) bool {
	fmt.Fprintf(t.out, "%s [y/N] ", prompt)

	if !t.in.Scan() {
		fmt.Fprintln(t.out)

		return false
	}

	answer := strings.ToLower(strings.TrimSpace(t.in.Text()))

	return answer == "y" || answer == "yes"
}

func (t *terminal) Render(view session.View) {
	fmt.Fprintf(t.out, "\nWorkflow: %s", view.Name)

	if view.RemoteID != "" {
		fmt.Fprintf(t.out, " (id %s)", view.RemoteID)
	}

	fmt.Fprintln(t.out)

	if len(view.Nodes) == 0 {
		fmt.Fprintln(t.out, "  no nodes yet, try: add http")
	} else {
		w := tabwriter.NewWriter(t.out, 0, 4, 2, ' ', 0)

		for _, node := range view.Nodes {
			marker := " "
			if node.Selected {
				marker = "*"
			}

			fmt.Fprintf(w, "%s %d\t%s\t%s\t%s\n", marker, node.Index, node.Type, node.Name, node.ID)
		}

		_ = w.Flush()
	}

	fmt.Fprintf(t.out, "[%s] [%s]\n", control(view.Save), control(view.Generate))
	fmt.Fprintln(t.out, view.Preview)
}

func control(state session.ControlState) string {
	if state.Disabled {
		return state.Label + " (busy)"
	}

	return state.Label
}
