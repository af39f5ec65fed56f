package assets

import (
	"fmt"

	"github.com/pthm-cable/glyphs/config"
	"github.com/pthm-cable/glyphs/raster"
)

// LoadTarget decodes an image and resizes it to width×height.
func LoadTarget(path string, width, height int) (raster.Image, error) {
	img, err := decodeFile("target image", path)
	if err != nil {
		return raster.Image{}, err
	}
	return raster.Resize(img, width, height), nil
}

// Load builds the bundle described by cfg. Any failure to read the target or
// the atlas wraps ErrResourceNotFound.
func Load(cfg *config.Config) (*Bundle, error) {
	target, err := LoadTarget(cfg.Assets.TargetPath, cfg.Canvas.Width, cfg.Canvas.Height)
	if err != nil {
		return nil, err
	}

	var glyphs []Glyph
	if cfg.Assets.AtlasPath == "" {
		glyphs = BuiltinGlyphs()
	} else {
		glyphs, err = LoadAtlas(cfg.Assets.AtlasPath, cfg.Assets.GlyphThreshold)
		if err != nil {
			return nil, err
		}
	}

	palette, err := ParsePalette(cfg.Assets.Palette)
	if err != nil {
		return nil, fmt.Errorf("parsing palette: %w", err)
	}

	return NewBundle(target, glyphs, palette), nil
}
