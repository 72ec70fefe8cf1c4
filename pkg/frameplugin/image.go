// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package frameplugin

import (
	"image"
	"image/color"
	"image/draw"
)

// Image returns a read-only image.Image over the frame's current pixels,
// or nil once a borrowed view has expired. Gray8 and RGBA8 frames map onto
// *image.Gray and *image.RGBA so the standard fast paths apply.
func (f *Frame) Image() image.Image {
	pix := f.Pix()
	if pix == nil {
		return nil
	}
	return imageOver(f.Config(), pix)
}

// DrawImage returns a draw.Image backed by the slot's own storage.
func (f *Frame) DrawImage() (draw.Image, error) {
	pix, err := f.Writable()
	if err != nil {
		return nil, err
	}
	return imageOver(f.Config(), pix), nil
}

func imageOver(cfg FrameConfig, pix []byte) draw.Image {
	rect := image.Rect(0, 0, cfg.Width, cfg.Height)
	switch cfg.Format {
	case PixelFormatGray8:
		return &image.Gray{Pix: pix, Stride: cfg.Stride(), Rect: rect}
	case PixelFormatRGBA8:
		return &image.RGBA{Pix: pix, Stride: cfg.Stride(), Rect: rect}
	default:
		return &BGR{Pix: pix, Stride: cfg.Stride(), Rect: rect}
	}
}

// BGR is an in-memory image of packed 8-bit blue, green, red triples.
type BGR struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

// ColorModel implements image.Image.
func (p *BGR) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (p *BGR) Bounds() image.Rectangle { return p.Rect }

// At implements image.Image.
func (p *BGR) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	return color.RGBA{R: p.Pix[i+2], G: p.Pix[i+1], B: p.Pix[i], A: 0xff}
}

// Set implements draw.Image.
func (p *BGR) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	p.Pix[i], p.Pix[i+1], p.Pix[i+2] = rgba.B, rgba.G, rgba.R
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *BGR) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}
