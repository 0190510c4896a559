// Package x11 reads and changes the output layout through the X11 RandR
// extension, without going through the xrandr binary.
package x11

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"autoscreen/internal/display"
)

var (
	// ErrOutputNotFound is returned for output names the server does not know.
	ErrOutputNotFound = errors.New("x11: output not found")
	// ErrNoController is returned when no CRTC can drive the output.
	ErrNoController = errors.New("x11: no available controller")
	// ErrTimeout is returned when the server does not reply in time.
	ErrTimeout = errors.New("x11: timed out")
)

// Backend talks RandR over one X connection.
type Backend struct {
	conn    *xgb.Conn
	root    xproto.Window
	timeout time.Duration
}

// Open connects to the X display (empty means $DISPLAY) and initialises RandR.
func Open(displayName string, timeout time.Duration) (*Backend, error) {
	conn, err := xgb.NewConnDisplay(displayName)
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	if err := randr.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init randr: %w", err)
	}

	return &Backend{
		conn:    conn,
		root:    xproto.Setup(conn).DefaultScreen(conn).Root,
		timeout: timeout,
	}, nil
}

// Close releases the X connection.
func (b *Backend) Close() error {
	b.conn.Close()
	return nil
}

// await waits for an X reply, bounded by ctx and the backend timeout.
// A reply that arrives late is dropped.
func await[T any](ctx context.Context, timeout time.Duration, reply func() (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := reply()
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}

// check is await for void requests.
func check(ctx context.Context, timeout time.Duration, c interface{ Check() error }) error {
	_, err := await(ctx, timeout, func() (struct{}, error) {
		return struct{}{}, c.Check()
	})
	return err
}

// load takes a snapshot of the screen resources.
func (b *Backend) load(ctx context.Context) (State, error) {
	resources, err := await(ctx, b.timeout, randr.GetScreenResources(b.conn, b.root).Reply)
	if err != nil {
		return State{}, fmt.Errorf("get screen resources: %w", err)
	}

	st := State{configTimestamp: resources.ConfigTimestamp}

	names := resources.Names
	for _, mode := range resources.Modes {
		name := ""
		if int(mode.NameLen) <= len(names) {
			name = string(names[:mode.NameLen])
			names = names[mode.NameLen:]
		}
		st.modes = append(st.modes, Mode{id: randr.Mode(mode.Id), Name: name, Width: mode.Width, Height: mode.Height})
	}

	for _, crtc := range resources.Crtcs {
		info, err := await(ctx, b.timeout, randr.GetCrtcInfo(b.conn, crtc, resources.ConfigTimestamp).Reply)
		if err != nil {
			return State{}, fmt.Errorf("get crtc %d: %w", crtc, err)
		}

		st.controllers = append(st.controllers, Controller{
			id:      crtc,
			Mode:    st.mode(info.Mode),
			Outputs: info.Outputs,
			X:       info.X,
			Y:       info.Y,
			Width:   info.Width,
			Height:  info.Height,
		})
	}

	for _, screen := range resources.Outputs {
		info, err := await(ctx, b.timeout, randr.GetOutputInfo(b.conn, screen, resources.ConfigTimestamp).Reply)
		if err != nil {
			return State{}, fmt.Errorf("get output %d: %w", screen, err)
		}

		out := Output{
			id:        screen,
			ctrl:      info.Crtc,
			Name:      string(info.Name),
			Connected: info.Connection == randr.ConnectionConnected,
			Preferred: int(info.NumPreferred),
			Crtcs:     info.Crtcs,
		}
		for _, mid := range info.Modes {
			if m := st.mode(mid); m != nil {
				out.Modes = append(out.Modes, *m)
			}
		}
		if c, ok := st.controller(info.Crtc); ok {
			out.CurrentMode = c.Mode
		}
		st.outputs = append(st.outputs, out)
	}

	primary, err := await(ctx, b.timeout, randr.GetOutputPrimary(b.conn, b.root).Reply)
	if err == nil {
		st.primary = primary.Output
	}

	return st, nil
}

// Outputs lists every output known to the server.
func (b *Backend) Outputs(ctx context.Context) ([]display.Output, error) {
	st, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	return st.Display(), nil
}

// Status reports the connection state and active mode of output.
// An output the server does not know is reported as disconnected.
func (b *Backend) Status(ctx context.Context, output string) (display.Status, error) {
	st, err := b.load(ctx)
	if err != nil {
		return display.Status{}, err
	}
	return st.status(output), nil
}

func (s State) status(name string) display.Status {
	out, ok := s.output(name)
	if !ok || !out.Connected {
		return display.Status{}
	}
	res := display.Status{Connected: true}
	if m, ok := out.ActiveMode(); ok {
		res.Resolution = m.Label()
	}
	return res
}

// PlaceRightOf sets output to resolution and positions it right of relative.
func (b *Backend) PlaceRightOf(ctx context.Context, output, relative, resolution string) error {
	st, err := b.load(ctx)
	if err != nil {
		return err
	}

	steps, err := st.planRightOf(output, relative, resolution)
	if err != nil {
		return err
	}

	for _, p := range steps {
		if err := b.fitScreen(ctx, st, p); err != nil {
			return err
		}
		if err := b.setCrtc(ctx, st, p); err != nil {
			return err
		}
	}
	return nil
}

// Auto disables controllers left on disconnected outputs and lights up
// connected outputs without one at their preferred mode, left to right.
func (b *Backend) Auto(ctx context.Context) error {
	st, err := b.load(ctx)
	if err != nil {
		return err
	}

	stale := st.staleControllers()
	for _, c := range stale {
		err := b.setCrtc(ctx, st, placement{ctrl: c.id})
		if err != nil {
			return fmt.Errorf("disable crtc %d: %w", c.id, err)
		}
	}
	if len(stale) > 0 {
		if st, err = b.load(ctx); err != nil {
			return err
		}
		if err := b.shrinkScreen(ctx, st); err != nil {
			return err
		}
	}

	plans, err := st.planAuto()
	if err != nil {
		return err
	}
	for _, p := range plans {
		if err := b.fitScreen(ctx, st, p); err != nil {
			return err
		}
		if err := b.setCrtc(ctx, st, p); err != nil {
			return err
		}
	}
	return nil
}

// setCrtc applies one placement. A zero mode disables the controller.
func (b *Backend) setCrtc(ctx context.Context, st State, p placement) error {
	reply, err := await(ctx, b.timeout, randr.SetCrtcConfig(b.conn, p.ctrl, xproto.TimeCurrentTime, st.configTimestamp,
		p.x, p.y, p.mode.id, randr.RotationRotate0, p.outputs()).Reply)
	if err != nil {
		return fmt.Errorf("set crtc %d: %w", p.ctrl, err)
	}
	if reply.Status != randr.SetConfigSuccess {
		return fmt.Errorf("set crtc %d: status %d", p.ctrl, reply.Status)
	}
	return nil
}

// fitScreen grows the root window when the placement does not fit.
func (b *Backend) fitScreen(ctx context.Context, st State, p placement) error {
	geom, err := await(ctx, b.timeout, xproto.GetGeometry(b.conn, xproto.Drawable(b.root)).Reply)
	if err != nil {
		return fmt.Errorf("get root geometry: %w", err)
	}

	w, h := st.extent(p)
	if w <= geom.Width && h <= geom.Height {
		return nil
	}
	if w < geom.Width {
		w = geom.Width
	}
	if h < geom.Height {
		h = geom.Height
	}

	return b.setScreenSize(ctx, w, h)
}

// shrinkScreen trims the root window to the controllers still lit.
func (b *Backend) shrinkScreen(ctx context.Context, st State) error {
	w, h := st.litExtent()
	if w == 0 || h == 0 {
		return nil
	}

	geom, err := await(ctx, b.timeout, xproto.GetGeometry(b.conn, xproto.Drawable(b.root)).Reply)
	if err != nil {
		return fmt.Errorf("get root geometry: %w", err)
	}
	if w >= geom.Width && h >= geom.Height {
		return nil
	}
	return b.setScreenSize(ctx, w, h)
}

// setScreenSize resizes the root window within the server's limits.
func (b *Backend) setScreenSize(ctx context.Context, w, h uint16) error {
	limits, err := await(ctx, b.timeout, randr.GetScreenSizeRange(b.conn, b.root).Reply)
	if err != nil {
		return fmt.Errorf("get screen size range: %w", err)
	}
	if w > limits.MaxWidth || h > limits.MaxHeight {
		return fmt.Errorf("screen %dx%d exceeds maximum %dx%d", w, h, limits.MaxWidth, limits.MaxHeight)
	}
	if w < limits.MinWidth {
		w = limits.MinWidth
	}
	if h < limits.MinHeight {
		h = limits.MinHeight
	}

	screen := xproto.Setup(b.conn).DefaultScreen(b.conn)
	mmW := millimeters(w, screen.WidthInPixels, screen.WidthInMillimeters)
	mmH := millimeters(h, screen.HeightInPixels, screen.HeightInMillimeters)

	if err := check(ctx, b.timeout, randr.SetScreenSizeChecked(b.conn, b.root, w, h, mmW, mmH)); err != nil {
		return fmt.Errorf("set screen size %dx%d: %w", w, h, err)
	}
	return nil
}

// millimeters keeps the DPI of the screen the server reported at setup.
func millimeters(px, refPx, refMm uint16) uint32 {
	if refPx == 0 || refMm == 0 {
		// 96 DPI
		return uint32(px) * 254 / 960
	}
	return uint32(px) * uint32(refMm) / uint32(refPx)
}
