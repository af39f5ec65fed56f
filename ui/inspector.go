package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/glyphs/assets"
	"github.com/pthm-cable/glyphs/genome"
)

// TileInspector shows the gene under the cursor when it hovers the best preview.
type TileInspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewTileInspector creates a new inspector panel.
func NewTileInspector(x, y, width int32) *TileInspector {
	return &TileInspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *TileInspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the gene of best under mouse, which is in screen space over
// preview. It returns the Y position below the panel.
func (ins *TileInspector) Draw(mouse rl.Vector2, preview rl.Rectangle, best *genome.Chromosome, bundle *assets.Bundle) int32 {
	r := ins.renderer
	x := ins.x + r.Theme.Padding
	y := ins.y

	y = r.DrawSectionHeader(x, y, "Tile")
	if !rl.CheckCollisionPointRec(mouse, preview) {
		rl.DrawText("hover the best preview", x, y, r.Theme.FontSize, r.Theme.LabelColor)
		return y + r.Theme.LineHeight
	}

	target := bundle.Target()
	// Map the cursor back to canvas pixels.
	px := int((mouse.X - preview.X) / preview.Width * float32(target.Width))
	py := int((mouse.Y - preview.Y) / preview.Height * float32(target.Height))
	t, ok := genome.TileAt(px, py, target.Width, target.Height)
	if !ok {
		return y
	}
	gene := best.Gene(t)
	gridWidth := target.Width / assets.GlyphSize

	y = r.DrawLabelValue(x, y, "Index", fmt.Sprintf("%d (%d, %d)", t, t%gridWidth, t/gridWidth))
	y = r.DrawLabelValue(x, y, "Glyph", fmt.Sprintf("%d", gene.Glyph))
	y = ins.drawGlyph(x+r.Theme.LabelWidth, y, bundle.Glyph(gene.Glyph), bundle.Color(gene.FG), bundle.Color(gene.BG))
	y = r.DrawColorSwatch(x, y, fmt.Sprintf("FG %d", gene.FG), toRL(bundle.Color(gene.FG)))
	y = r.DrawColorSwatch(x, y, fmt.Sprintf("BG %d", gene.BG), toRL(bundle.Color(gene.BG)))

	// Outline the tile on the preview.
	cellW := preview.Width / float32(gridWidth)
	cellH := preview.Height / float32(target.Height/assets.GlyphSize)
	rl.DrawRectangleLinesEx(rl.NewRectangle(
		preview.X+float32(t%gridWidth)*cellW,
		preview.Y+float32(t/gridWidth)*cellH,
		cellW, cellH), 1, r.Theme.HighlightColor)
	return y
}

// drawGlyph draws the glyph mask enlarged 4x in its tile colors.
func (ins *TileInspector) drawGlyph(x, y int32, g assets.Glyph, fg, bg assets.Color) int32 {
	const scale = 4
	for gy := 0; gy < assets.GlyphSize; gy++ {
		for gx := 0; gx < assets.GlyphSize; gx++ {
			c := bg
			if g.Bit(gx, gy) {
				c = fg
			}
			rl.DrawRectangle(x+int32(gx)*scale, y+int32(gy)*scale, scale, scale, toRL(c))
		}
	}
	return y + assets.GlyphSize*scale + 4
}

func toRL(c assets.Color) rl.Color {
	return rl.Color{R: c.R, G: c.G, B: c.B, A: 255}
}
