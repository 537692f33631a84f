package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// RGB is an 8-bit colour.
type RGB struct {
	R, G, B int
}

// Hex formats c as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHexColor parses #rgb or #rrggbb; the leading # is optional.
func ParseHexColor(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, eris.Errorf("render: invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, eris.Errorf("render: invalid colour %q", s)
	}
	return RGB{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}

// ParseHex is ParseHexColor for trusted values. Invalid input yields black.
func ParseHex(s string) RGB {
	c, _ := ParseHexColor(s)
	return c
}

// Gradient is a three-stop colour ramp (low → mid → high).
type Gradient struct {
	Low, Mid, High RGB
}

// Gradient returns the theme's progress-bar ramp.
func (t Theme) Gradient() Gradient {
	return Gradient{
		Low:  ParseHex(t.GradientLow),
		Mid:  ParseHex(t.GradientMid),
		High: ParseHex(t.GradientHigh),
	}
}

// At returns the colour at position p in [0, 1]; p is clamped.
func (g Gradient) At(p float64) RGB {
	switch {
	case p < 0:
		p = 0
	case p > 1:
		p = 1
	}
	if p < 0.5 {
		return lerp(g.Low, g.Mid, p/0.5)
	}
	return lerp(g.Mid, g.High, (p-0.5)/0.5)
}

// CSS returns a linear-gradient spanning the full ramp across the filled part
// of a bar, as the native PDF bars do.
func (g Gradient) CSS() string {
	return fmt.Sprintf("linear-gradient(90deg, %s 0%%, %s 50%%, %s 100%%)", g.Low.Hex(), g.Mid.Hex(), g.High.Hex())
}

func lerp(a, b RGB, t float64) RGB {
	mix := func(x, y int) int {
		return int(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return RGB{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B)}
}
