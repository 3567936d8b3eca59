package imaging

import (
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorStats summarizes the visible pixels of an image.
//
// The diagnostic trace attaches one to every transform step so a client can
// tell at a glance whether a cell went blank or saturated.
type ColorStats struct {
	Hex       string  `json:"hex"`       // Mean colour, "#rrggbb"
	Lightness float64 `json:"lightness"` // CIE L* of the mean colour, 0-1
	Hue       float64 `json:"hue"`       // HSL hue, 0-360 degrees
	Coverage  float64 `json:"coverage"`  // Fraction of pixels that are not fully transparent
}

// MeanColor averages the non-transparent pixels of img in linear RGB.
//
// Averaging in linear light keeps a cell made of half black and half white
// pixels from reading as dark grey. An image with no visible pixels returns
// black with zero coverage.
func MeanColor(img image.Image) ColorStats {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total <= 0 {
		return ColorStats{Hex: "#000000"}
	}

	var sr, sg, sb float64
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			r, g, bl := c.LinearRgb()
			sr += r
			sg += g
			sb += bl
			n++
		}
	}

	if n == 0 {
		return ColorStats{Hex: "#000000"}
	}

	mean := colorful.LinearRgb(sr/float64(n), sg/float64(n), sb/float64(n)).Clamped()
	l, _, _ := mean.Lab()
	h, _, _ := mean.Hsl()
	if math.IsNaN(h) {
		h = 0
	}

	return ColorStats{
		Hex:       mean.Hex(),
		Lightness: l,
		Hue:       h,
		Coverage:  float64(n) / float64(total),
	}
}
