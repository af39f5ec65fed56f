package session

import "github.com/pthm-cable/glyphs/raster"

// TopStrip renders the k best chromosomes side by side.
func (s *Session) TopStrip(k int) raster.Image {
	top := s.pop.Top(k)
	images := make([]raster.Image, len(top))
	for i, c := range top {
		images[i] = c.Image(s.bundle)
	}
	return raster.HConcat(images...)
}

// Comparison renders the target next to the best chromosome, each scaled to
// size×size. The target is resampled smoothly; the best keeps hard tile edges.
func (s *Session) Comparison(size int) raster.Image {
	target := raster.Resize(s.bundle.Target().RGBA(), size, size)
	best := s.pop.Best().Image(s.bundle).ScaleNearest(size, size)
	return raster.HConcat(target, best)
}
