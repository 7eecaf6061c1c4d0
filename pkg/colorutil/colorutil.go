// Package colorutil provides shared color utilities for the weight estimator.
package colorutil

import (
	"image/color"
	"math"
)

// Overlay colors used when annotating result frames.
var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Blue  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Green = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// HSVRange is an inclusive band in OpenCV HSV space (H 0-180, S 0-255, V 0-255).
type HSVRange struct {
	HueMin float64 `yaml:"hue_min" json:"hue_min"`
	HueMax float64 `yaml:"hue_max" json:"hue_max"`
	SatMin float64 `yaml:"sat_min" json:"sat_min"`
	SatMax float64 `yaml:"sat_max" json:"sat_max"`
	ValMin float64 `yaml:"val_min" json:"val_min"`
	ValMax float64 `yaml:"val_max" json:"val_max"`
}

// BlueBand is the default band for a blue reference object.
var BlueBand = HSVRange{
	HueMin: 100, HueMax: 130,
	SatMin: 150, SatMax: 255,
	ValMin: 50, ValMax: 255,
}

// Contains reports whether the HSV triple falls inside the band.
func (r HSVRange) Contains(h, s, v float64) bool {
	return h >= r.HueMin && h <= r.HueMax &&
		s >= r.SatMin && s <= r.SatMax &&
		v >= r.ValMin && v <= r.ValMax
}

// ContainsRGB converts an RGB color to HSV and checks it against the band.
func (r HSVRange) ContainsRGB(c color.RGBA) bool {
	h, s, v := RGBToHSV(float64(c.R), float64(c.G), float64(c.B))
	return r.Contains(h, s, v)
}

// Valid reports whether every bound lies in the OpenCV range and min <= max.
func (r HSVRange) Valid() bool {
	in := func(lo, hi, limit float64) bool {
		return lo >= 0 && hi <= limit && lo <= hi
	}
	return in(r.HueMin, r.HueMax, 180) && in(r.SatMin, r.SatMax, 255) && in(r.ValMin, r.ValMax, 255)
}

// RGBToHSV converts RGB (0-255) to HSV (OpenCV convention: H 0-180, S 0-255, V 0-255).
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC * 255.0

	if maxC == 0 {
		s = 0
	} else {
		s = (diff / maxC) * 255.0
	}

	if diff == 0 {
		h = 0
	} else if maxC == r {
		h = 60 * math.Mod((g-b)/diff, 6)
	} else if maxC == g {
		h = 60 * ((b-r)/diff + 2)
	} else {
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}

	// OpenCV stores hue halved to fit in a byte
	h = h / 2

	return h, s, v
}
