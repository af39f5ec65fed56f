// Package assets builds the immutable target image, glyph set and palette
// shared by every chromosome and worker during a run.
package assets

import (
	"errors"
	"sort"

	"github.com/pthm-cable/glyphs/raster"
)

// ErrResourceNotFound indicates the target image or glyph atlas could not be loaded.
var ErrResourceNotFound = errors.New("assets: resource not found")

// Bundle is the read-only asset set for a run. It is never mutated after
// construction, so concurrent readers need no locking.
type Bundle struct {
	target  raster.Image
	glyphs  []Glyph
	palette []Color
}

// NewBundle copies the inputs and orders glyphs and palette by descending
// brightness. Ties keep their input order.
func NewBundle(target raster.Image, glyphs []Glyph, palette []Color) *Bundle {
	b := &Bundle{
		target:  target.Clone(),
		glyphs:  append([]Glyph(nil), glyphs...),
		palette: append([]Color(nil), palette...),
	}
	sort.SliceStable(b.glyphs, func(i, j int) bool {
		return b.glyphs[i].Weight() > b.glyphs[j].Weight()
	})
	sort.SliceStable(b.palette, func(i, j int) bool {
		return b.palette[i].Brightness() > b.palette[j].Brightness()
	})
	return b
}

// Target returns the target image. Callers must not modify it.
func (b *Bundle) Target() raster.Image { return b.target }

// Glyph returns glyph i.
func (b *Bundle) Glyph(i int) Glyph { return b.glyphs[i] }

// GlyphCount returns the number of glyphs.
func (b *Bundle) GlyphCount() int { return len(b.glyphs) }

// Color returns palette entry i.
func (b *Bundle) Color(i int) Color { return b.palette[i] }

// ColorCount returns the number of palette entries.
func (b *Bundle) ColorCount() int { return len(b.palette) }
