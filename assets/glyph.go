package assets

import (
	"math/bits"
	"strings"
)

// GlyphSize is the edge length of a glyph in pixels.
const GlyphSize = 8

// Glyph is an 8×8 binary mask. Bit y*8+x is pixel (x, y).
type Glyph uint64

// Bit reports whether pixel (x, y) is set (foreground).
func (g Glyph) Bit(x, y int) bool {
	return g&(1<<uint(y*GlyphSize+x)) != 0
}

// With returns g with pixel (x, y) set.
func (g Glyph) With(x, y int) Glyph {
	return g | 1<<uint(y*GlyphSize+x)
}

// Weight returns the number of foreground pixels.
func (g Glyph) Weight() int {
	return bits.OnesCount64(uint64(g))
}

// Brightness returns the mean intensity of the mask in [0,255].
func (g Glyph) Brightness() float64 {
	return float64(g.Weight()) * 255 / (GlyphSize * GlyphSize)
}

// String renders the mask as 8 lines of '#' and '.'.
func (g Glyph) String() string {
	var sb strings.Builder
	for y := 0; y < GlyphSize; y++ {
		for x := 0; x < GlyphSize; x++ {
			if g.Bit(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		if y < GlyphSize-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// GlyphFromRows builds a glyph from 8 row bytes, MSB = leftmost pixel.
func GlyphFromRows(rows [GlyphSize]byte) Glyph {
	var g Glyph
	for y, row := range rows {
		for x := 0; x < GlyphSize; x++ {
			if row&(0x80>>uint(x)) != 0 {
				g = g.With(x, y)
			}
		}
	}
	return g
}

// Color is one palette entry.
type Color struct {
	R, G, B uint8
}

// Brightness returns the mean of the three channels.
func (c Color) Brightness() float64 {
	return (float64(c.R) + float64(c.G) + float64(c.B)) / 3
}
