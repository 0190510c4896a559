package layout

import (
	"context"
	"fmt"
	"io"

	"autoscreen/internal/config"
	"autoscreen/internal/display"
)

// Watcher re-evaluates the layout on every change notification but only acts
// when the external output's status differs from the last one it handled.
// Its own placements echo back as notifications with an unchanged status.
type Watcher struct {
	backend Backend
	cfg     *config.Config
	out     io.Writer

	last *display.Status
}

func NewWatcher(b Backend, cfg *config.Config, out io.Writer) *Watcher {
	return &Watcher{backend: b, cfg: cfg, out: out}
}

// Step evaluates once. The bool reports whether an action was taken.
// A failed action is retried on the next step.
func (w *Watcher) Step(ctx context.Context) (Decision, bool, error) {
	st, err := w.backend.Status(ctx, w.cfg.External)
	if err != nil {
		return Decision{}, false, fmt.Errorf("read status of %s: %w", w.cfg.External, err)
	}
	if w.last != nil && *w.last == st {
		return Decision{}, false, nil
	}

	d := Decide(w.cfg, st)
	if err := Apply(ctx, w.backend, d); err != nil {
		return d, false, err
	}
	report(w.out, w.backend, d)

	w.last = &st
	return d, true, nil
}
