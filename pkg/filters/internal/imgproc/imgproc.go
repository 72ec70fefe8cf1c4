// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package imgproc holds the pixel kernels shared by the bundled filters.
// All functions work on packed frames described by a FrameConfig.
package imgproc

import (
	"math"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// GaussianSigma returns the sigma used for a kernel of size k when none is
// given explicitly.
func GaussianSigma(k int) float64 {
	return 0.3*(float64(k-1)*0.5-1) + 0.8
}

// GaussianKernel returns a normalized 1-D kernel of odd size k.
func GaussianKernel(k int) []float64 {
	if k < 1 {
		k = 1
	}
	if k%2 == 0 {
		k++
	}
	sigma := GaussianSigma(k)
	kernel := make([]float64, k)
	half := k / 2
	var sum float64
	for i := range kernel {
		x := float64(i - half)
		kernel[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// GaussianBlur writes a k x k Gaussian blur of src into dst. Borders
// replicate the edge pixel. dst and src must not overlap.
func GaussianBlur(dst, src []byte, cfg frameplugin.FrameConfig, k int) {
	kernel := GaussianKernel(k)
	if len(kernel) == 1 {
		copy(dst, src)
		return
	}
	w, h := cfg.Width, cfg.Height
	bpp := cfg.Format.BytesPerPixel()
	stride := cfg.Stride()
	half := len(kernel) / 2
	tmp := make([]float64, len(src))

	for y := 0; y < h; y++ {
		row := y * stride
		for x := 0; x < w; x++ {
			for c := 0; c < bpp; c++ {
				var acc float64
				for i, kv := range kernel {
					sx := clampInt(x+i-half, 0, w-1)
					acc += kv * float64(src[row+sx*bpp+c])
				}
				tmp[row+x*bpp+c] = acc
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < bpp; c++ {
				var acc float64
				for i, kv := range kernel {
					sy := clampInt(y+i-half, 0, h-1)
					acc += kv * tmp[sy*stride+x*bpp+c]
				}
				dst[y*stride+x*bpp+c] = ToByte(acc)
			}
		}
	}
}

// Luma returns one BT.601 luminance byte per pixel of src.
func Luma(src []byte, cfg frameplugin.FrameConfig) []byte {
	n := cfg.Width * cfg.Height
	out := make([]byte, n)
	bpp := cfg.Format.BytesPerPixel()
	for i := 0; i < n; i++ {
		p := src[i*bpp : i*bpp+bpp]
		switch cfg.Format {
		case frameplugin.PixelFormatGray8:
			out[i] = p[0]
		case frameplugin.PixelFormatBGR24:
			out[i] = ToByte(0.114*float64(p[0]) + 0.587*float64(p[1]) + 0.299*float64(p[2]))
		default:
			out[i] = ToByte(0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2]))
		}
	}
	return out
}

// ExpandGray writes one luminance byte per pixel into dst in cfg's format.
// Alpha, where present, is set opaque.
func ExpandGray(dst, gray []byte, cfg frameplugin.FrameConfig) {
	bpp := cfg.Format.BytesPerPixel()
	for i, v := range gray {
		p := dst[i*bpp : i*bpp+bpp]
		switch cfg.Format {
		case frameplugin.PixelFormatRGBA8:
			p[0], p[1], p[2], p[3] = v, v, v, 0xff
		default:
			for c := range p {
				p[c] = v
			}
		}
	}
}

// SobelEdges returns a binary edge map of a luminance plane: 255 where the
// L1 gradient magnitude reaches threshold, 0 elsewhere.
func SobelEdges(gray []byte, w, h, threshold int) []byte {
	out := make([]byte, len(gray))
	at := func(x, y int) int {
		return int(gray[clampInt(y, 0, h-1)*w+clampInt(x, 0, w-1)])
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1) +
				at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			if abs(gx)+abs(gy) >= threshold {
				out[y*w+x] = 0xff
			}
		}
	}
	return out
}

// ToByte rounds v to the nearest byte, saturating at 0 and 255.
func ToByte(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v + 0.5)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
