package assets

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ParsePalette converts hex strings ("#rrggbb" or "#rgb") to colors.
func ParsePalette(hex []string) ([]Color, error) {
	out := make([]Color, 0, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("palette entry %d %q: %w", i, h, err)
		}
		r, g, b := c.RGB255()
		out = append(out, Color{R: r, G: g, B: b})
	}
	return out, nil
}
