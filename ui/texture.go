package ui

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/glyphs/raster"
)

// previewTexture is a GPU texture refreshed from a raster.Image.
type previewTexture struct {
	tex    rl.Texture2D
	width  int
	height int
	buf    []color.RGBA
}

// update uploads img, recreating the texture when the size changed.
func (p *previewTexture) update(img raster.Image) {
	if p.width != img.Width || p.height != img.Height {
		p.unload()
		blank := rl.GenImageColor(img.Width, img.Height, rl.Black)
		p.tex = rl.LoadTextureFromImage(blank)
		rl.UnloadImage(blank)
		rl.SetTextureFilter(p.tex, rl.FilterPoint)
		p.width, p.height = img.Width, img.Height
	}
	p.buf = img.Colors(p.buf)
	rl.UpdateTexture(p.tex, p.buf)
}

// draw stretches the texture over dst.
func (p *previewTexture) draw(dst rl.Rectangle) {
	if p.width == 0 {
		return
	}
	src := rl.NewRectangle(0, 0, float32(p.width), float32(p.height))
	rl.DrawTexturePro(p.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

func (p *previewTexture) unload() {
	if p.width != 0 {
		rl.UnloadTexture(p.tex)
		p.width, p.height = 0, 0
	}
}
