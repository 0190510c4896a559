package xrandr

import (
	"strconv"
	"strings"

	"autoscreen/internal/display"
)

// Parse reports whether output is connected and which resolution it runs.
//
// The first line containing "<output> connected" marks the output. Its
// resolution is the first token of the first mode line below it flagged
// with '*' (current) or '+' (preferred). The search stops at the next
// header line, so a connected output without a flagged mode yields an
// empty resolution instead of borrowing one from the next output.
func Parse(report, output string) display.Status {
	lines := strings.Split(report, "\n")
	marker := output + " connected"

	for i, line := range lines {
		if !strings.Contains(line, marker) {
			continue
		}

		st := display.Status{Connected: true}
		for _, modeLine := range lines[i+1:] {
			if isHeader(modeLine) {
				break
			}
			if !strings.ContainsAny(modeLine, "*+") {
				continue
			}
			if fields := strings.Fields(modeLine); len(fields) > 0 {
				st.Resolution = fields[0]
			}
			break
		}
		return st
	}

	return display.Status{}
}

// isHeader reports whether line starts a new block: a screen or output line.
// Mode lines are always indented.
func isHeader(line string) bool {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return false
	}
	return line[0] != ' ' && line[0] != '\t'
}

// ParseOutputs decodes every output block of an xrandr listing.
// Screen lines and unparsable mode lines are skipped.
func ParseOutputs(report string) []display.Output {
	var outputs []display.Output
	var cur *display.Output

	for _, line := range strings.Split(report, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if isHeader(line) {
			cur = nil
			out, ok := parseHeader(line)
			if !ok {
				continue
			}
			outputs = append(outputs, out)
			cur = &outputs[len(outputs)-1]
			continue
		}

		if cur == nil {
			continue
		}
		cur.Modes = append(cur.Modes, parseModeLine(line)...)
	}

	return outputs
}

// parseHeader decodes "<name> connected|disconnected [primary] [WxH+X+Y] ...".
func parseHeader(line string) (display.Output, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return display.Output{}, false
	}

	var out display.Output
	switch fields[1] {
	case "connected":
		out.Connected = true
	case "disconnected":
	default:
		// "Screen 0: minimum ..." and friends.
		return display.Output{}, false
	}
	out.Name = fields[0]

	for _, f := range fields[2:] {
		if f == "primary" {
			out.Primary = true
			continue
		}
		if w, h, x, y, ok := parseGeometry(f); ok {
			out.Width, out.Height, out.X, out.Y = w, h, x, y
			break
		}
	}
	return out, true
}

// parseGeometry decodes "1920x1080+0+0". Negative offsets print as "+-1920".
func parseGeometry(s string) (uint16, uint16, int16, int16, bool) {
	size, offsets, ok := strings.Cut(s, "+")
	if !ok {
		return 0, 0, 0, 0, false
	}
	w, h, ok := parseSize(size)
	if !ok {
		return 0, 0, 0, 0, false
	}
	xs, ys, ok := strings.Cut(offsets, "+")
	if !ok {
		return 0, 0, 0, 0, false
	}
	x, err := strconv.ParseInt(xs, 10, 16)
	if err != nil {
		return 0, 0, 0, 0, false
	}
	y, err := strconv.ParseInt(ys, 10, 16)
	if err != nil {
		return 0, 0, 0, 0, false
	}
	return w, h, int16(x), int16(y), true
}

func parseSize(s string) (uint16, uint16, bool) {
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, false
	}
	// Interlaced and custom modes carry suffixes: "1920x1080i", "1920x1080_60.00".
	hs = strings.TrimRightFunc(hs, func(r rune) bool { return r < '0' || r > '9' })
	if i := strings.IndexAny(hs, "_i"); i >= 0 {
		hs = hs[:i]
	}
	w, err := strconv.ParseUint(ws, 10, 16)
	if err != nil {
		return 0, 0, false
	}
	h, err := strconv.ParseUint(hs, 10, 16)
	if err != nil {
		return 0, 0, false
	}
	return uint16(w), uint16(h), true
}

// parseModeLine decodes "   1920x1080     60.00*+  50.00    59.94".
// Each refresh rate is a separate mode sharing the size.
func parseModeLine(line string) []display.Mode {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	w, h, ok := parseSize(fields[0])
	if !ok {
		return nil
	}

	var modes []display.Mode
	for _, f := range fields[1:] {
		m := display.Mode{
			Label:     fields[0],
			Width:     w,
			Height:    h,
			Current:   strings.Contains(f, "*"),
			Preferred: strings.Contains(f, "+"),
		}
		rate, err := strconv.ParseFloat(strings.TrimRight(f, "*+"), 64)
		if err != nil {
			// Trailing flags separated by whitespace: "60.00 +".
			if len(modes) > 0 && strings.Trim(f, "*+") == "" {
				modes[len(modes)-1].Current = modes[len(modes)-1].Current || m.Current
				modes[len(modes)-1].Preferred = modes[len(modes)-1].Preferred || m.Preferred
			}
			continue
		}
		m.Refresh = rate
		modes = append(modes, m)
	}
	if len(modes) == 0 {
		modes = append(modes, display.Mode{Label: fields[0], Width: w, Height: h})
	}
	return modes
}
