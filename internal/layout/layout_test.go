package layout

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"autoscreen/internal/config"
	"autoscreen/internal/display"
	"autoscreen/internal/xrandr"
)

type placeCall struct {
	output, relative, resolution string
}

type fakeBackend struct {
	status    display.Status
	statusErr error
	applyErr  error

	places []placeCall
	autos  int
}

func (f *fakeBackend) Status(ctx context.Context, output string) (display.Status, error) {
	return f.status, f.statusErr
}

func (f *fakeBackend) PlaceRightOf(ctx context.Context, output, relative, resolution string) error {
	f.places = append(f.places, placeCall{output, relative, resolution})
	return f.applyErr
}

func (f *fakeBackend) Auto(ctx context.Context) error {
	f.autos++
	return f.applyErr
}

func defaultConfig() *config.Config {
	cfg := config.Default()
	return &cfg
}

func TestRun_PlacesAllowedResolutions(t *testing.T) {
	for _, res := range []string{"2560x1080", "1920x1080"} {
		t.Run(res, func(t *testing.T) {
			fb := &fakeBackend{status: display.Status{Connected: true, Resolution: res}}
			var out bytes.Buffer

			d, err := Run(context.Background(), fb, defaultConfig(), &out)
			if err != nil {
				t.Fatalf("Run err=%v", err)
			}
			if d.Action != ActionPlace {
				t.Fatalf("action = %v", d.Action)
			}
			if len(fb.places) != 1 || fb.places[0] != (placeCall{"HDMI-1", "eDP-1", res}) {
				t.Fatalf("place calls = %+v", fb.places)
			}
			if fb.autos != 0 {
				t.Fatalf("unexpected reset")
			}
			want := "HDMI-1 set to " + res + " right of eDP-1.\n"
			if out.String() != want {
				t.Fatalf("output = %q, want %q", out.String(), want)
			}
		})
	}
}

func TestRun_UnsupportedResolution(t *testing.T) {
	fb := &fakeBackend{status: display.Status{Connected: true, Resolution: "1280x1024"}}
	var out bytes.Buffer

	d, err := Run(context.Background(), fb, defaultConfig(), &out)
	if err != nil {
		t.Fatalf("Run err=%v", err)
	}
	if d.Action != ActionUnsupported {
		t.Fatalf("action = %v", d.Action)
	}
	if len(fb.places) != 0 || fb.autos != 0 {
		t.Fatalf("unexpected backend calls: places=%v autos=%d", fb.places, fb.autos)
	}
	if out.String() != "Resolution 1280x1024 not supported.\n" {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRun_ConnectedWithoutMode(t *testing.T) {
	fb := &fakeBackend{status: display.Status{Connected: true}}
	var out bytes.Buffer

	d, err := Run(context.Background(), fb, defaultConfig(), &out)
	if err != nil {
		t.Fatalf("Run err=%v", err)
	}
	if d.Action != ActionNoMode {
		t.Fatalf("action = %v", d.Action)
	}
	if len(fb.places) != 0 || fb.autos != 0 {
		t.Fatalf("unexpected backend calls")
	}
}

func TestRun_DisconnectedResetsOnce(t *testing.T) {
	statuses := []display.Status{
		{},
		{Resolution: "1920x1080"},
		{Resolution: "800x600"},
	}
	for _, st := range statuses {
		fb := &fakeBackend{status: st}
		var out bytes.Buffer

		d, err := Run(context.Background(), fb, defaultConfig(), &out)
		if err != nil {
			t.Fatalf("Run err=%v", err)
		}
		if d.Action != ActionReset || fb.autos != 1 || len(fb.places) != 0 {
			t.Fatalf("status %+v: action=%v autos=%d places=%v", st, d.Action, fb.autos, fb.places)
		}
	}
}

func TestRun_StatusError(t *testing.T) {
	fb := &fakeBackend{statusErr: xrandr.ErrToolNotFound}

	_, err := Run(context.Background(), fb, defaultConfig(), &bytes.Buffer{})
	if !errors.Is(err, xrandr.ErrToolNotFound) {
		t.Fatalf("err = %v", err)
	}
	if fb.autos != 0 || len(fb.places) != 0 {
		t.Fatalf("backend called after status failure")
	}
}

func TestRun_ApplyErrorKeepsDecision(t *testing.T) {
	fb := &fakeBackend{applyErr: errors.New("boom")}
	var out bytes.Buffer

	d, err := Run(context.Background(), fb, defaultConfig(), &out)
	if err == nil {
		t.Fatalf("expected error")
	}
	if d.Action != ActionReset {
		t.Fatalf("action = %v", d.Action)
	}
	if out.Len() != 0 {
		t.Fatalf("status line printed for failed action: %q", out.String())
	}
}

func TestRun_CustomOutputs(t *testing.T) {
	cfg := defaultConfig()
	cfg.External = "DP-2"
	cfg.Internal = "LVDS-1"
	cfg.Resolutions = []string{"3440x1440"}

	fb := &fakeBackend{status: display.Status{Connected: true, Resolution: "3440x1440"}}
	if _, err := Run(context.Background(), fb, cfg, &bytes.Buffer{}); err != nil {
		t.Fatalf("Run err=%v", err)
	}
	if len(fb.places) != 1 || fb.places[0] != (placeCall{"DP-2", "LVDS-1", "3440x1440"}) {
		t.Fatalf("place calls = %+v", fb.places)
	}
}

func TestRun_EndToEndWithXrandrClient(t *testing.T) {
	report := "HDMI-1 connected 1920x1080+0+0\n" +
		"   1920x1080     60.00*+\n" +
		"eDP-1 connected primary 1920x1080+0+0\n"
	fe := &recordingExec{stdout: report}
	var out bytes.Buffer

	d, err := Run(context.Background(), xrandr.NewClient(fe), defaultConfig(), &out)
	if err != nil {
		t.Fatalf("Run err=%v", err)
	}
	if d.Action != ActionPlace || d.Resolution != "1920x1080" {
		t.Fatalf("decision = %+v", d)
	}
	if len(fe.calls) != 2 {
		t.Fatalf("calls = %v", fe.calls)
	}
	want := xrandr.PlaceRightOfArgs("HDMI-1", "eDP-1", "1920x1080")
	got := fe.calls[1]
	if len(got) != len(want) {
		t.Fatalf("apply args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("apply args = %v, want %v", got, want)
		}
	}
}

type recordingExec struct {
	stdout string
	calls  [][]string
}

func (r *recordingExec) Run(ctx context.Context, args ...string) (xrandr.Result, error) {
	r.calls = append(r.calls, args)
	if len(args) == 0 {
		return xrandr.Result{Stdout: r.stdout}, nil
	}
	return xrandr.Result{Args: args}, nil
}

func TestDecide_IsPure(t *testing.T) {
	cfg := defaultConfig()
	st := display.Status{Connected: true, Resolution: "1920x1080"}
	if Decide(cfg, st) != Decide(cfg, st) {
		t.Fatalf("Decide is not deterministic")
	}
}

func TestWatcher_ActsOnlyOnChange(t *testing.T) {
	fb := &fakeBackend{status: display.Status{Connected: true, Resolution: "1920x1080"}}
	var out bytes.Buffer
	w := NewWatcher(fb, defaultConfig(), &out)

	if _, acted, err := w.Step(context.Background()); err != nil || !acted {
		t.Fatalf("first step acted=%v err=%v", acted, err)
	}
	if _, acted, err := w.Step(context.Background()); err != nil || acted {
		t.Fatalf("repeat step acted=%v err=%v", acted, err)
	}
	if len(fb.places) != 1 {
		t.Fatalf("places = %v", fb.places)
	}

	fb.status = display.Status{}
	d, acted, err := w.Step(context.Background())
	if err != nil || !acted || d.Action != ActionReset {
		t.Fatalf("unplug step d=%+v acted=%v err=%v", d, acted, err)
	}
	if fb.autos != 1 {
		t.Fatalf("autos = %d", fb.autos)
	}
}

func TestWatcher_RetriesAfterFailure(t *testing.T) {
	fb := &fakeBackend{applyErr: errors.New("busy")}
	w := NewWatcher(fb, defaultConfig(), &bytes.Buffer{})

	if _, _, err := w.Step(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	fb.applyErr = nil
	if _, acted, err := w.Step(context.Background()); err != nil || !acted {
		t.Fatalf("retry acted=%v err=%v", acted, err)
	}
	if fb.autos != 2 {
		t.Fatalf("autos = %d", fb.autos)
	}
}

func TestDryRun_NoBackendChanges(t *testing.T) {
	tests := []struct {
		name   string
		status display.Status
		action Action
		want   string
	}{
		{
			name:   "place",
			status: display.Status{Connected: true, Resolution: "2560x1080"},
			action: ActionPlace,
			want:   "dry-run: would set HDMI-1 to 2560x1080 right of eDP-1\n",
		},
		{
			name:   "reset",
			status: display.Status{},
			action: ActionReset,
			want:   "dry-run: would reset display layout to automatic\n",
		},
		{
			name:   "unsupported",
			status: display.Status{Connected: true, Resolution: "1280x1024"},
			action: ActionUnsupported,
			want:   "Resolution 1280x1024 not supported.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeBackend{status: tt.status}
			var out bytes.Buffer

			d, err := Run(context.Background(), DryRun{Backend: fb, Out: &out}, defaultConfig(), &out)
			if err != nil {
				t.Fatalf("Run err=%v", err)
			}
			if d.Action != tt.action {
				t.Fatalf("action = %v", d.Action)
			}
			if len(fb.places) != 0 || fb.autos != 0 {
				t.Fatalf("dry run reached the backend")
			}
			if out.String() != tt.want {
				t.Fatalf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestDryRun_WatcherMakesNoClaims(t *testing.T) {
	fb := &fakeBackend{status: display.Status{}}
	var out bytes.Buffer
	w := NewWatcher(&DryRun{Backend: fb, Out: &out}, defaultConfig(), &out)

	if _, acted, err := w.Step(context.Background()); err != nil || !acted {
		t.Fatalf("Step acted=%v err=%v", acted, err)
	}
	if fb.autos != 0 {
		t.Fatalf("autos = %d", fb.autos)
	}
	if strings.Contains(out.String(), "Resetting") || strings.Contains(out.String(), "set to") {
		t.Fatalf("output claims a change: %q", out.String())
	}
}
