package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
)

// placement is one SetCrtcConfig request.
type placement struct {
	ctrl   randr.Crtc
	output randr.Output
	// others stay on the controller next to output.
	others []randr.Output
	mode   Mode
	x, y   int16
}

func (p placement) outputs() []randr.Output {
	if p.mode.id == 0 {
		return nil
	}
	return append([]randr.Output{p.output}, p.others...)
}

func (p placement) right() int {
	return int(p.x) + int(p.mode.Width)
}

func (p placement) bottom() int {
	return int(p.y) + int(p.mode.Height)
}

// planRightOf resolves names into the requests that place output right of
// relative. When the two are cloned on one controller, the first request
// takes output off it so relative keeps its controller.
func (s State) planRightOf(output, relative, resolution string) ([]placement, error) {
	out, ok := s.output(output)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutputNotFound, output)
	}
	if !out.Connected {
		return nil, fmt.Errorf("output %s is not connected", output)
	}

	mode, ok := out.findMode(resolution)
	if !ok {
		return nil, fmt.Errorf("output %s has no mode %s", output, resolution)
	}

	rel, ok := s.output(relative)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutputNotFound, relative)
	}
	relCtrl, ok := s.controller(rel.ctrl)
	if !ok || !relCtrl.Active() {
		return nil, fmt.Errorf("output %s is not active", relative)
	}

	right := int(relCtrl.X) + int(relCtrl.Width)
	if right > 32767 {
		return nil, fmt.Errorf("no room for %s right of x=%d", output, right)
	}

	ctrl, ok := s.freeController(out, map[randr.Crtc]bool{relCtrl.id: true})
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoController, output)
	}

	var steps []placement
	if out.ctrl == relCtrl.id {
		detach := placement{ctrl: relCtrl.id, output: rel.id, mode: *relCtrl.Mode, x: relCtrl.X, y: relCtrl.Y}
		for _, id := range relCtrl.Outputs {
			if id != rel.id && id != out.id {
				detach.others = append(detach.others, id)
			}
		}
		steps = append(steps, detach)
	}

	return append(steps, placement{
		ctrl:   ctrl,
		output: out.id,
		mode:   mode,
		x:      int16(right),
		y:      relCtrl.Y,
	}), nil
}

// findMode prefers the current mode when several share the name.
func (o Output) findMode(name string) (Mode, bool) {
	if o.CurrentMode != nil && o.CurrentMode.Label() == name {
		return *o.CurrentMode, true
	}
	for _, m := range o.Modes {
		if m.Label() == name {
			return m, true
		}
	}
	return Mode{}, false
}

// freeController returns the output's own controller, or the first one it
// can use that drives nothing. Controllers in taken are never returned.
func (s State) freeController(out Output, taken map[randr.Crtc]bool) (randr.Crtc, bool) {
	if out.ctrl != 0 && !taken[out.ctrl] {
		return out.ctrl, true
	}
	for _, id := range out.Crtcs {
		if taken[id] {
			continue
		}
		c, ok := s.controller(id)
		if ok && !c.Active() && len(c.Outputs) == 0 {
			return id, true
		}
	}
	return 0, false
}

// staleControllers returns active controllers whose outputs are all gone.
func (s State) staleControllers() []Controller {
	var stale []Controller
	for _, c := range s.controllers {
		if !c.Active() {
			continue
		}
		connected := false
		for _, id := range c.Outputs {
			for _, o := range s.outputs {
				if o.id == id && o.Connected {
					connected = true
				}
			}
		}
		if !connected {
			stale = append(stale, c)
		}
	}
	return stale
}

// planAuto places every connected output lacking a controller at its
// preferred (or first) mode, to the right of what is already lit.
func (s State) planAuto() ([]placement, error) {
	stale := make(map[randr.Crtc]bool)
	for _, c := range s.staleControllers() {
		stale[c.id] = true
	}

	right := 0
	for _, c := range s.controllers {
		if c.Active() && !stale[c.id] {
			if r := int(c.X) + int(c.Width); r > right {
				right = r
			}
		}
	}

	var plans []placement
	taken := make(map[randr.Crtc]bool)
	for _, o := range s.outputs {
		if !o.Connected || o.ctrl != 0 || len(o.Modes) == 0 {
			continue
		}
		ctrl, ok := s.freeController(o, taken)
		if !ok {
			return nil, fmt.Errorf("%w for %s", ErrNoController, o.Name)
		}
		if right > 32767 {
			return nil, fmt.Errorf("no room for %s right of x=%d", o.Name, right)
		}
		taken[ctrl] = true

		p := placement{ctrl: ctrl, output: o.id, mode: o.Modes[0], x: int16(right)}
		plans = append(plans, p)
		right = p.right()
	}
	return plans, nil
}

// litExtent is the screen size covering every active controller.
func (s State) litExtent() (uint16, uint16) {
	return s.extent(placement{})
}

// extent is the screen size needed once p is applied on top of s.
func (s State) extent(p placement) (uint16, uint16) {
	w, h := p.right(), p.bottom()
	for _, c := range s.controllers {
		if !c.Active() || c.id == p.ctrl {
			continue
		}
		if r := int(c.X) + int(c.Width); r > w {
			w = r
		}
		if b := int(c.Y) + int(c.Height); b > h {
			h = b
		}
	}
	return clamp16(w), clamp16(h)
}

func clamp16(v int) uint16 {
	switch {
	case v < 0:
		return 0
	case v > 65535:
		return 65535
	default:
		return uint16(v)
	}
}
