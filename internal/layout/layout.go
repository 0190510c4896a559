// Package layout decides where the external output goes and applies it.
package layout

import (
	"context"
	"fmt"
	"io"

	"autoscreen/internal/config"
	"autoscreen/internal/display"
)

// Backend abstracts the display operations the orchestrator needs.
type Backend interface {
	Status(ctx context.Context, output string) (display.Status, error)
	PlaceRightOf(ctx context.Context, output, relative, resolution string) error
	Auto(ctx context.Context) error
}

type Action int

const (
	// ActionPlace puts the external output right of the internal one.
	ActionPlace Action = iota
	// ActionUnsupported leaves the layout alone: resolution not allowed.
	ActionUnsupported
	// ActionNoMode leaves the layout alone: connected but no active mode.
	ActionNoMode
	// ActionReset restores the automatic layout.
	ActionReset
)

func (a Action) String() string {
	switch a {
	case ActionPlace:
		return "place"
	case ActionUnsupported:
		return "unsupported"
	case ActionNoMode:
		return "no-mode"
	case ActionReset:
		return "reset"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Action     Action
	Output     string
	Relative   string
	Resolution string
}

// Message is the status line printed for the decision.
func (d Decision) Message() string {
	switch d.Action {
	case ActionPlace:
		return fmt.Sprintf("%s set to %s right of %s.", d.Output, d.Resolution, d.Relative)
	case ActionUnsupported:
		return fmt.Sprintf("Resolution %s not supported.", d.Resolution)
	case ActionNoMode:
		return fmt.Sprintf("%s is connected but reports no active mode.", d.Output)
	case ActionReset:
		return fmt.Sprintf("%s is disconnected. Resetting display layout to automatic.", d.Output)
	default:
		return d.Action.String()
	}
}

// Acts reports whether applying the decision calls the backend.
func (d Decision) Acts() bool {
	return d.Action == ActionPlace || d.Action == ActionReset
}

// Decide maps a parsed status onto an action. It has no side effects.
func Decide(cfg *config.Config, st display.Status) Decision {
	d := Decision{
		Output:     cfg.External,
		Relative:   cfg.Internal,
		Resolution: st.Resolution,
	}

	switch {
	case !st.Connected:
		d.Action = ActionReset
	case !st.HasResolution():
		d.Action = ActionNoMode
	case cfg.Supported(st.Resolution):
		d.Action = ActionPlace
	default:
		d.Action = ActionUnsupported
	}
	return d
}

// Apply executes the decision against the backend.
// Unsupported and no-mode decisions make no backend call.
func Apply(ctx context.Context, b Backend, d Decision) error {
	switch d.Action {
	case ActionPlace:
		return b.PlaceRightOf(ctx, d.Output, d.Relative, d.Resolution)
	case ActionReset:
		return b.Auto(ctx)
	default:
		return nil
	}
}

// Run reads the external output's status, decides, applies, and writes the
// status line to out. The decision is returned even when applying it fails.
func Run(ctx context.Context, b Backend, cfg *config.Config, out io.Writer) (Decision, error) {
	st, err := b.Status(ctx, cfg.External)
	if err != nil {
		return Decision{}, fmt.Errorf("read status of %s: %w", cfg.External, err)
	}

	d := Decide(cfg, st)
	if err := Apply(ctx, b, d); err != nil {
		return d, err
	}

	report(out, b, d)
	return d, nil
}

// report writes the status line. A dry run already described the change
// and must not claim it happened.
func report(out io.Writer, b Backend, d Decision) {
	if d.Acts() && isDryRun(b) {
		return
	}
	fmt.Fprintln(out, d.Message())
}
