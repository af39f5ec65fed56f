package genome

import (
	"fmt"

	"github.com/pthm-cable/glyphs/assets"
	"github.com/pthm-cable/glyphs/raster"
)

// TileCount returns the number of tiles covering a width×height canvas.
func TileCount(width, height int) int {
	return (width / assets.GlyphSize) * (height / assets.GlyphSize)
}

// Render decodes g into a new image the size of the target.
func Render(g Genome, a Assets) raster.Image {
	t := a.Target()
	dst := raster.New(t.Width, t.Height)
	RenderInto(dst, g, a)
	return dst
}

// RenderInto decodes g into dst, which must match the target size.
// Tile t lands at row t/gridWidth, column t%gridWidth.
// It panics with *GeneIndexError on an out-of-range gene.
func RenderInto(dst raster.Image, g Genome, a Assets) {
	target := a.Target()
	if !dst.SameSize(target) {
		panic(fmt.Sprintf("genome: render into %dx%d, target is %dx%d", dst.Width, dst.Height, target.Width, target.Height))
	}
	if want := TileCount(target.Width, target.Height); len(g) != want {
		panic(fmt.Sprintf("genome: %d genes for a canvas of %d tiles", len(g), want))
	}

	glyphs, colors := a.GlyphCount(), a.ColorCount()
	gridWidth := target.Width / assets.GlyphSize

	for t, gene := range g {
		if err := checkGene(t, gene, glyphs, colors); err != nil {
			panic(err)
		}
		mask := a.Glyph(gene.Glyph)
		fg := a.Color(gene.FG)
		bg := a.Color(gene.BG)

		x0 := (t % gridWidth) * assets.GlyphSize
		y0 := (t / gridWidth) * assets.GlyphSize
		for y := 0; y < assets.GlyphSize; y++ {
			i := dst.Offset(x0, y0+y)
			for x := 0; x < assets.GlyphSize; x++ {
				c := bg
				if mask.Bit(x, y) {
					c = fg
				}
				dst.Pix[i] = c.R
				dst.Pix[i+1] = c.G
				dst.Pix[i+2] = c.B
				i += raster.Channels
			}
		}
	}
}

// TileAt returns the index of the tile covering pixel (x, y) of a
// width×height canvas, or false when the pixel lies outside it.
func TileAt(x, y, width, height int) (int, bool) {
	if x < 0 || y < 0 || x >= width || y >= height {
		return 0, false
	}
	gridWidth := width / assets.GlyphSize
	return (y/assets.GlyphSize)*gridWidth + x/assets.GlyphSize, true
}
