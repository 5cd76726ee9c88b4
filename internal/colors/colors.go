// Package colors assigns each known event type a stable chart color.
package colors

import (
	"fmt"
	"math"
)

const (
	saturation = 0.5
	value      = 0.5

	// Fallback is returned for event types outside the palette.
	Fallback = "#808080"
)

// Palette maps event types to "#rrggbb" colors. It is immutable once built.
type Palette struct {
	order  []string
	colors map[string]string
}

// NewPalette spaces hues evenly over types: type i gets hue i/N at fixed
// saturation and value.
func NewPalette(types []string) *Palette {
	p := &Palette{
		order:  make([]string, len(types)),
		colors: make(map[string]string, len(types)),
	}
	copy(p.order, types)

	n := float64(len(types))
	for i, ty := range types {
		r, g, b := hsvToRGB(float64(i)/n, saturation, value)
		p.colors[ty] = toHex(r, g, b)
	}
	return p
}

// Color returns the color for an event type.
func (p *Palette) Color(eventType string) string {
	if c, ok := p.colors[eventType]; ok {
		return c
	}
	return Fallback
}

// Types returns the event types in palette order.
func (p *Palette) Types() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// hsvToRGB is the hexcone conversion; all components are in [0, 1].
func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	if s == 0 {
		return v, v, v
	}
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// toHex scales each channel by 255 and truncates.
func toHex(r, g, b float64) string {
	return fmt.Sprintf("#%02x%02x%02x", int(r*255), int(g*255), int(b*255))
}
