// Package raster provides a packed 8-bit RGB image buffer shared by the
// renderer, the fitness function and every presenter/exporter.
package raster

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Channels is the number of bytes per pixel.
const Channels = 3

// Image is a W×H RGB raster stored row-major, 3 bytes per pixel.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a black image.
func New(width, height int) Image {
	return Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// Offset returns the index of the red byte of pixel (x, y).
func (m Image) Offset(x, y int) int {
	return (y*m.Width + x) * Channels
}

// At returns the RGB triple at (x, y).
func (m Image) At(x, y int) (r, g, b uint8) {
	i := m.Offset(x, y)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// Set writes the RGB triple at (x, y).
func (m Image) Set(x, y int, r, g, b uint8) {
	i := m.Offset(x, y)
	m.Pix[i] = r
	m.Pix[i+1] = g
	m.Pix[i+2] = b
}

// Fill paints every pixel with one color.
func (m Image) Fill(r, g, b uint8) {
	for i := 0; i < len(m.Pix); i += Channels {
		m.Pix[i] = r
		m.Pix[i+1] = g
		m.Pix[i+2] = b
	}
}

// SameSize reports whether both images have identical dimensions.
func (m Image) SameSize(o Image) bool {
	return m.Width == o.Width && m.Height == o.Height
}

// Equal reports whether both images have the same size and pixels.
func (m Image) Equal(o Image) bool {
	if !m.SameSize(o) || len(m.Pix) != len(o.Pix) {
		return false
	}
	for i := range m.Pix {
		if m.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (m Image) Clone() Image {
	c := Image{Width: m.Width, Height: m.Height, Pix: make([]uint8, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

// RGBA converts to an opaque *image.RGBA for encoding.
func (m Image) RGBA() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i, j := 0, 0; i < len(m.Pix); i, j = i+Channels, j+4 {
		dst.Pix[j] = m.Pix[i]
		dst.Pix[j+1] = m.Pix[i+1]
		dst.Pix[j+2] = m.Pix[i+2]
		dst.Pix[j+3] = 0xff
	}
	return dst
}

// Colors converts to a flat color.RGBA slice, the layout raylib textures expect.
func (m Image) Colors(dst []color.RGBA) []color.RGBA {
	n := m.Width * m.Height
	if cap(dst) < n {
		dst = make([]color.RGBA, n)
	}
	dst = dst[:n]
	for p, i := 0, 0; p < n; p, i = p+1, i+Channels {
		dst[p] = color.RGBA{R: m.Pix[i], G: m.Pix[i+1], B: m.Pix[i+2], A: 0xff}
	}
	return dst
}

// FromImage converts any image.Image to RGB, dropping alpha.
func FromImage(src image.Image) Image {
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	return fromRGBA(rgba)
}

// Resize scales src to width×height with Catmull-Rom resampling and converts to RGB.
func Resize(src image.Image, width, height int) Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return fromRGBA(dst)
}

// ScaleNearest scales m to width×height with nearest-neighbour sampling,
// keeping tile edges sharp.
func (m Image) ScaleNearest(width, height int) Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), m.RGBA(), image.Rect(0, 0, m.Width, m.Height), draw.Src, nil)
	return fromRGBA(dst)
}

func fromRGBA(src *image.RGBA) Image {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	m := New(w, h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			m.Set(x, y, row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return m
}

// HConcat places images left to right, top aligned, on a black background.
func HConcat(images ...Image) Image {
	width, height := 0, 0
	for _, m := range images {
		width += m.Width
		if m.Height > height {
			height = m.Height
		}
	}
	out := New(width, height)
	x0 := 0
	for _, m := range images {
		for y := 0; y < m.Height; y++ {
			copy(out.Pix[out.Offset(x0, y):], m.Pix[m.Offset(0, y):m.Offset(0, y)+m.Width*Channels])
		}
		x0 += m.Width
	}
	return out
}
