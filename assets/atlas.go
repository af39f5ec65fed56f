package assets

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultGlyphThreshold is the atlas intensity above which a glyph bit is set.
const DefaultGlyphThreshold = 128

// decodeFile opens and decodes an image, wrapping failures in ErrResourceNotFound.
func decodeFile(kind, path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: %s path is empty", ErrResourceNotFound, kind)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %w", ErrResourceNotFound, kind, path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s %q: %w", ErrResourceNotFound, kind, path, err)
	}
	return img, nil
}

// LoadAtlas decodes a glyph atlas image and slices it into glyphs.
func LoadAtlas(path string, threshold uint8) ([]Glyph, error) {
	img, err := decodeFile("glyph atlas", path)
	if err != nil {
		return nil, err
	}
	return SliceAtlas(img, threshold), nil
}

// SliceAtlas converts an atlas to grayscale and cuts it into 8×8 tiles in
// row-major order. Partial tiles at the right and bottom edges are ignored.
func SliceAtlas(atlas image.Image, threshold uint8) []Glyph {
	b := atlas.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), atlas, b.Min, draw.Src)

	cols := b.Dx() / GlyphSize
	rows := b.Dy() / GlyphSize
	glyphs := make([]Glyph, 0, cols*rows)
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			var g Glyph
			for y := 0; y < GlyphSize; y++ {
				for x := 0; x < GlyphSize; x++ {
					if gray.GrayAt(tx*GlyphSize+x, ty*GlyphSize+y).Y > threshold {
						g = g.With(x, y)
					}
				}
			}
			glyphs = append(glyphs, g)
		}
	}
	return glyphs
}
