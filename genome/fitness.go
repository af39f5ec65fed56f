package genome

import (
	"fmt"

	"github.com/pthm-cable/glyphs/raster"
)

// Fitness returns the sum of squared per-channel differences between img and
// target. Lower is better; zero means the images are identical.
func Fitness(img, target raster.Image) uint64 {
	if !img.SameSize(target) {
		panic(fmt.Sprintf("genome: fitness of %dx%d image against %dx%d target", img.Width, img.Height, target.Width, target.Height))
	}
	var sum uint64
	for i, v := range img.Pix {
		d := int64(v) - int64(target.Pix[i])
		sum += uint64(d * d)
	}
	return sum
}
