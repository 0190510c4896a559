package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"autoscreen/internal/display"
)

// State is one snapshot of the screen resources.
type State struct {
	configTimestamp xproto.Timestamp
	primary         randr.Output

	controllers []Controller
	outputs     []Output
	modes       []Mode
}

type Controller struct {
	id randr.Crtc

	Mode          *Mode
	Outputs       []randr.Output
	X, Y          int16
	Width, Height uint16
}

// Active reports whether the controller is driving a mode.
func (c Controller) Active() bool {
	return c.Mode != nil
}

type Mode struct {
	id randr.Mode

	Name          string
	Width, Height uint16
}

// Label is the xrandr-style mode name.
func (m Mode) Label() string {
	if m.Name != "" {
		return m.Name
	}
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

type Output struct {
	id   randr.Output
	ctrl randr.Crtc

	Name      string
	Connected bool

	CurrentMode *Mode
	// Modes lists the supported modes, preferred ones first.
	Modes     []Mode
	Preferred int
	Crtcs     []randr.Crtc
}

// ActiveMode mirrors the '*' then '+' rule of the xrandr listing.
func (o Output) ActiveMode() (Mode, bool) {
	if o.CurrentMode != nil {
		return *o.CurrentMode, true
	}
	if o.Preferred > 0 && len(o.Modes) > 0 {
		return o.Modes[0], true
	}
	return Mode{}, false
}

func (s State) output(name string) (Output, bool) {
	for _, o := range s.outputs {
		if o.Name == name {
			return o, true
		}
	}
	return Output{}, false
}

func (s State) controller(id randr.Crtc) (Controller, bool) {
	if id == 0 {
		return Controller{}, false
	}
	for _, c := range s.controllers {
		if c.id == id {
			return c, true
		}
	}
	return Controller{}, false
}

func (s State) mode(id randr.Mode) *Mode {
	for i := range s.modes {
		if s.modes[i].id == id {
			m := s.modes[i]
			return &m
		}
	}
	return nil
}

// Display converts the snapshot into the backend-neutral model.
func (s State) Display() []display.Output {
	list := make([]display.Output, 0, len(s.outputs))
	for _, o := range s.outputs {
		out := display.Output{Name: o.Name, Connected: o.Connected, Primary: o.id == s.primary}
		if c, ok := s.controller(o.ctrl); ok && c.Active() {
			out.X, out.Y = c.X, c.Y
			out.Width, out.Height = c.Width, c.Height
		}
		for i, m := range o.Modes {
			out.Modes = append(out.Modes, display.Mode{
				Label:     m.Label(),
				Width:     m.Width,
				Height:    m.Height,
				Current:   o.CurrentMode != nil && o.CurrentMode.id == m.id,
				Preferred: i < o.Preferred,
			})
		}
		list = append(list, out)
	}
	return list
}
