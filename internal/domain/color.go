package domain

import (
	"fmt"
	"math"
	"sync"
	"unicode/utf16"
)

// CategoryColor is the palette derived for one category.
type CategoryColor struct {
	// Hex is the primary color as "#rrggbb".
	Hex string `json:"color"`

	// Tint is the primary color at 15% opacity as "rgba(R, G, B, 0.15)".
	Tint string `json:"lightColor"`

	RGB RGB `json:"rgb"`
}

// RGB holds 8-bit color channels.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ColorAssigner maps category labels to colors. Results are memoized for the
// lifetime of the assigner, so equal labels always get the identical color.
// Safe for concurrent use.
type ColorAssigner struct {
	mu       sync.Mutex
	cache    map[string]CategoryColor
	computed int
}

// NewColorAssigner creates an assigner with an empty cache.
func NewColorAssigner() *ColorAssigner {
	return &ColorAssigner{cache: make(map[string]CategoryColor)}
}

// ColorFor returns the color for category, computing it on first use.
func (a *ColorAssigner) ColorFor(category string) CategoryColor {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.cache[category]; ok {
		return c
	}

	c := ComputeCategoryColor(category)
	a.cache[category] = c
	a.computed++

	return c
}

// Len returns the number of cached categories.
func (a *ColorAssigner) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.cache)
}

// ComputeCategoryColor derives a color from category without caching.
//
// The hash is the classic "h*31 + c" string hash over UTF-16 code units with
// int32 wraparound. Hue, saturation and lightness are taken from it and the
// HSL triple is converted to RGB.
func ComputeCategoryColor(category string) CategoryColor {
	hash := categoryHash(category)

	absHash := abs64(int64(hash))
	hue := absHash % 360
	saturation := 65 + absHash%15
	lightness := 50 + abs64(int64(hash>>8))%10

	rgb := hslToRGB(float64(hue)/360, float64(saturation)/100, float64(lightness)/100)

	return CategoryColor{
		Hex:  fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B),
		Tint: fmt.Sprintf("rgba(%d, %d, %d, 0.15)", rgb.R, rgb.G, rgb.B),
		RGB:  rgb,
	}
}

// categoryHash computes hash = c + ((hash << 5) - hash) per code unit.
// int32 arithmetic wraps, which matches 32-bit truncation at every step.
func categoryHash(s string) int32 {
	var hash int32
	for _, unit := range utf16.Encode([]rune(s)) {
		hash = int32(unit) + ((hash << 5) - hash)
	}

	return hash
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}

// hslToRGB converts h, s, l in [0,1] to 8-bit channels.
func hslToRGB(h, s, l float64) RGB {
	if s == 0 {
		v := channel(l)
		return RGB{R: v, G: v, B: v}
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}

	p := 2*l - q

	return RGB{
		R: channel(hueToRGB(p, q, h+1.0/3)),
		G: channel(hueToRGB(p, q, h)),
		B: channel(hueToRGB(p, q, h-1.0/3)),
	}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}

	if t > 1 {
		t--
	}

	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

// channel scales v in [0,1] to [0,255], rounding half up like Math.round
// does for non-negative values.
func channel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Floor(v*255+0.5))))
}
