package assets

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// blockGlyphs approximates the graphic half of the PETSCII set.
var blockGlyphs = [][GlyphSize]byte{
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, // empty
	{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, // full
	{0xf0, 0xf0, 0xf0, 0xf0, 0xf0, 0xf0, 0xf0, 0xf0}, // left half
	{0x0f, 0x0f, 0x0f, 0x0f, 0x0f, 0x0f, 0x0f, 0x0f}, // right half
	{0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00}, // top half
	{0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff}, // bottom half
	{0xf0, 0xf0, 0xf0, 0xf0, 0x00, 0x00, 0x00, 0x00}, // quadrants
	{0x0f, 0x0f, 0x0f, 0x0f, 0x00, 0x00, 0x00, 0x00},
	{0x00, 0x00, 0x00, 0x00, 0xf0, 0xf0, 0xf0, 0xf0},
	{0x00, 0x00, 0x00, 0x00, 0x0f, 0x0f, 0x0f, 0x0f},
	{0xf0, 0xf0, 0xf0, 0xf0, 0x0f, 0x0f, 0x0f, 0x0f}, // diagonal quadrant pairs
	{0x0f, 0x0f, 0x0f, 0x0f, 0xf0, 0xf0, 0xf0, 0xf0},
	{0x80, 0xc0, 0xe0, 0xf0, 0xf8, 0xfc, 0xfe, 0xff}, // triangles
	{0x01, 0x03, 0x07, 0x0f, 0x1f, 0x3f, 0x7f, 0xff},
	{0xff, 0xfe, 0xfc, 0xf8, 0xf0, 0xe0, 0xc0, 0x80},
	{0xff, 0x7f, 0x3f, 0x1f, 0x0f, 0x07, 0x03, 0x01},
	{0xaa, 0x55, 0xaa, 0x55, 0xaa, 0x55, 0xaa, 0x55}, // checker
	{0x88, 0x22, 0x88, 0x22, 0x88, 0x22, 0x88, 0x22}, // light shade
	{0x77, 0xdd, 0x77, 0xdd, 0x77, 0xdd, 0x77, 0xdd}, // dark shade
	{0xff, 0x00, 0xff, 0x00, 0xff, 0x00, 0xff, 0x00}, // stripes
	{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa},
	{0xc0, 0xc0, 0xc0, 0xc0, 0xc0, 0xc0, 0xc0, 0xc0}, // bars
	{0x03, 0x03, 0x03, 0x03, 0x03, 0x03, 0x03, 0x03},
	{0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff},
	{0x18, 0x18, 0x18, 0xff, 0xff, 0x18, 0x18, 0x18}, // cross
	{0x18, 0x18, 0x18, 0x18, 0x18, 0x18, 0x18, 0x18},
	{0x00, 0x00, 0x00, 0xff, 0xff, 0x00, 0x00, 0x00},
	{0x3c, 0x7e, 0xff, 0xff, 0xff, 0xff, 0x7e, 0x3c}, // disc
	{0x3c, 0x42, 0x81, 0x81, 0x81, 0x81, 0x42, 0x3c}, // ring
	{0xff, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0xff}, // frame
	{0x81, 0x42, 0x24, 0x18, 0x18, 0x24, 0x42, 0x81}, // diagonal cross
}

// BuiltinGlyphs returns the default glyph set: block graphics plus printable
// ASCII from basicfont.Face7x13 scaled into 8×8 cells. Duplicate masks are
// dropped, keeping the first occurrence.
func BuiltinGlyphs() []Glyph {
	seen := make(map[Glyph]bool)
	out := make([]Glyph, 0, len(blockGlyphs)+95)
	add := func(g Glyph) {
		if seen[g] {
			return
		}
		seen[g] = true
		out = append(out, g)
	}

	for _, rows := range blockGlyphs {
		add(GlyphFromRows(rows))
	}
	for r := rune(0x21); r < 0x7f; r++ {
		add(rasterizeRune(r))
	}
	return out
}

// rasterizeRune draws r with basicfont and nearest-neighbour scales the
// inked rows (skipping the blank top row and descender padding) to 8×8.
func rasterizeRune(r rune) Glyph {
	face := basicfont.Face7x13
	cell := image.NewGray(image.Rect(0, 0, face.Advance, face.Height))
	d := &font.Drawer{
		Dst:  cell,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(string(r))

	scaled := image.NewGray(image.Rect(0, 0, GlyphSize, GlyphSize))
	src := image.Rect(0, 1, face.Advance, face.Height-1)
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), cell, src, draw.Src, nil)

	var g Glyph
	for y := 0; y < GlyphSize; y++ {
		for x := 0; x < GlyphSize; x++ {
			if scaled.GrayAt(x, y).Y > DefaultGlyphThreshold {
				g = g.With(x, y)
			}
		}
	}
	return g
}
