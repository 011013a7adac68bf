// Package colorutil provides shared color utilities for patch preview rendering.
package colorutil

import "image/color"

// Common overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

// Heat maps a normalized value in [0,1] onto a black-red-yellow-white
// gradient. Out-of-range input is clamped. Used to color mask coverage
// density cells.
func Heat(v float64) color.RGBA {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	scaled := v * 3
	switch {
	case scaled < 1:
		return color.RGBA{R: channel(scaled), A: 255}
	case scaled < 2:
		return color.RGBA{R: 255, G: channel(scaled - 1), A: 255}
	default:
		return color.RGBA{R: 255, G: 255, B: channel(scaled - 2), A: 255}
	}
}

// channel converts a 0..1 fraction to an 8-bit channel value.
func channel(f float64) uint8 {
	if f >= 1 {
		return 255
	}
	return uint8(f * 255)
}
