package particle

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Swatch assigns Color to every draw strictly below Below.
type Swatch struct {
	Below float64
	Color colorful.Color
}

// Palette is a cumulative weighted color table. Draws in [0,1) pick the
// first swatch whose bound exceeds the draw.
type Palette []Swatch

// DefaultPalette is the tree palette: 60% greens, 20% reds, 15% golds and
// 5% white, two shades per family.
func DefaultPalette() Palette {
	return Palette{
		{Below: 0.30, Color: colorful.MustParseHex("#98FB98")},
		{Below: 0.60, Color: colorful.MustParseHex("#CDDC39")},
		{Below: 0.70, Color: colorful.MustParseHex("#FF5252")},
		{Below: 0.80, Color: colorful.MustParseHex("#FF1744")},
		{Below: 0.90, Color: colorful.MustParseHex("#FFFF00")},
		{Below: 0.95, Color: colorful.MustParseHex("#FFF176")},
		{Below: 1.00, Color: colorful.MustParseHex("#FFFFFF")},
	}
}

// Pick returns the swatch color for a draw in [0,1).
func (p Palette) Pick(r float64) colorful.Color {
	for _, s := range p {
		if r < s.Below {
			return s.Color
		}
	}
	return p[len(p)-1].Color
}

// Family groups palette colors for reporting.
type Family string

const (
	Green Family = "green"
	Red   Family = "red"
	Gold  Family = "gold"
	White Family = "white"
)

// FamilyOf classifies a draw into its color family.
func FamilyOf(r float64) Family {
	switch {
	case r < 0.6:
		return Green
	case r < 0.8:
		return Red
	case r < 0.95:
		return Gold
	default:
		return White
	}
}
