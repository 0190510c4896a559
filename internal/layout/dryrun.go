package layout

import (
	"context"
	"fmt"
	"io"
)

// DryRun reads status from the wrapped backend and prints the changes it
// would make instead of making them.
type DryRun struct {
	Backend
	Out io.Writer
}

func (d DryRun) PlaceRightOf(ctx context.Context, output, relative, resolution string) error {
	fmt.Fprintf(d.Out, "dry-run: would set %s to %s right of %s\n", output, resolution, relative)
	return nil
}

func (d DryRun) Auto(ctx context.Context) error {
	fmt.Fprintln(d.Out, "dry-run: would reset display layout to automatic")
	return nil
}

func isDryRun(b Backend) bool {
	switch b.(type) {
	case DryRun, *DryRun:
		return true
	}
	return false
}
