package main

import (
	"fmt"
	"io"

	"autoscreen/internal/display"
)

// printOutputs writes one line per output followed by its distinct mode names.
func printOutputs(w io.Writer, outs []display.Output) error {
	for _, o := range outs {
		state := "disconnected"
		if o.Connected {
			state = "connected"
		}
		line := o.Name + " " + state
		if o.Primary {
			line += " primary"
		}
		if o.Width > 0 && o.Height > 0 {
			line += fmt.Sprintf(" %dx%d+%d+%d", o.Width, o.Height, o.X, o.Y)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}

		var names []string
		current := map[string]bool{}
		preferred := map[string]bool{}
		for _, m := range o.Modes {
			name := m.Name()
			if _, seen := current[name]; !seen {
				names = append(names, name)
			}
			current[name] = current[name] || m.Current
			preferred[name] = preferred[name] || m.Preferred
		}
		for _, name := range names {
			flags := ""
			if current[name] {
				flags += "*"
			}
			if preferred[name] {
				flags += "+"
			}
			if _, err := fmt.Fprintf(w, "   %s%s\n", name, flags); err != nil {
				return err
			}
		}
	}
	return nil
}
