// Package display holds the backend-neutral view of outputs and modes.
package display

import "fmt"

// Status is the connection state of a single output and its active resolution.
// An empty Resolution means the output reported no current or preferred mode.
type Status struct {
	Connected  bool
	Resolution string
}

// HasResolution reports whether a resolution was found.
func (s Status) HasResolution() bool {
	return s.Resolution != ""
}

type Mode struct {
	// Label is the mode name as listed by the tool, e.g. "1920x1080i".
	Label string

	Width, Height uint16
	Refresh       float64

	Current   bool
	Preferred bool
}

// Name returns the mode in the WIDTHxHEIGHT form used by xrandr.
func (m Mode) Name() string {
	if m.Label != "" {
		return m.Label
	}
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

type Output struct {
	Name      string
	Connected bool
	Primary   bool

	// Geometry of the output on the screen, zero when it has no CRTC.
	X, Y          int16
	Width, Height uint16

	Modes []Mode
}

// ActiveMode returns the first mode flagged current or preferred.
func (o Output) ActiveMode() (Mode, bool) {
	for _, m := range o.Modes {
		if m.Current || m.Preferred {
			return m, true
		}
	}
	return Mode{}, false
}

// Status derives the connection status of the output.
func (o Output) Status() Status {
	st := Status{Connected: o.Connected}
	if m, ok := o.ActiveMode(); ok && o.Connected {
		st.Resolution = m.Name()
	}
	return st
}

// FindOutput returns the output with the given name.
func FindOutput(list []Output, name string) (Output, bool) {
	for _, o := range list {
		if o.Name == name {
			return o, true
		}
	}
	return Output{}, false
}
