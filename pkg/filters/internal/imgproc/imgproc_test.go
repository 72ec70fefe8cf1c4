// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package imgproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

func TestGaussianKernel(t *testing.T) {
	t.Run("normalized and symmetric", func(t *testing.T) {
		k := GaussianKernel(5)
		require.Len(t, k, 5)
		var sum float64
		for _, v := range k {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.InDelta(t, k[0], k[4], 1e-12)
		assert.InDelta(t, k[1], k[3], 1e-12)
		assert.Greater(t, k[2], k[1])
	})

	t.Run("even size grows to odd", func(t *testing.T) {
		assert.Len(t, GaussianKernel(4), 5)
	})

	t.Run("non-positive size is identity", func(t *testing.T) {
		assert.Equal(t, []float64{1}, GaussianKernel(0))
	})
}

func TestGaussianBlur_UniformFrameUnchanged(t *testing.T) {
	cfg := frameplugin.FrameConfig{Width: 6, Height: 4, Format: frameplugin.PixelFormatBGR24}
	src := make([]byte, cfg.Size())
	for i := range src {
		src[i] = 77
	}
	dst := make([]byte, cfg.Size())

	GaussianBlur(dst, src, cfg, 5)

	assert.Equal(t, src, dst)
}

func TestGaussianBlur_SpreadsImpulse(t *testing.T) {
	cfg := frameplugin.FrameConfig{Width: 5, Height: 5, Format: frameplugin.PixelFormatGray8}
	src := make([]byte, cfg.Size())
	src[12] = 255
	dst := make([]byte, cfg.Size())

	GaussianBlur(dst, src, cfg, 3)

	assert.Less(t, dst[12], byte(255))
	assert.Positive(t, dst[11])
	assert.Equal(t, dst[11], dst[13])
	assert.Equal(t, dst[7], dst[17])
	assert.Zero(t, dst[0])
}

func TestLuma(t *testing.T) {
	bgr := frameplugin.FrameConfig{Width: 1, Height: 1, Format: frameplugin.PixelFormatBGR24}
	rgba := frameplugin.FrameConfig{Width: 1, Height: 1, Format: frameplugin.PixelFormatRGBA8}

	assert.Equal(t, []byte{76}, Luma([]byte{0, 0, 255}, bgr))
	assert.Equal(t, []byte{76}, Luma([]byte{255, 0, 0, 255}, rgba))
	assert.Equal(t, []byte{255}, Luma([]byte{255, 255, 255}, bgr))
}

func TestExpandGray(t *testing.T) {
	rgba := frameplugin.FrameConfig{Width: 2, Height: 1, Format: frameplugin.PixelFormatRGBA8}
	dst := make([]byte, rgba.Size())

	ExpandGray(dst, []byte{10, 20}, rgba)

	assert.Equal(t, []byte{10, 10, 10, 255, 20, 20, 20, 255}, dst)
}

func TestSobelEdges(t *testing.T) {
	// Left half dark, right half bright: a vertical edge in the middle.
	w, h := 6, 3
	gray := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			gray[y*w+x] = 200
		}
	}

	edges := SobelEdges(gray, w, h, 100)

	assert.Equal(t, byte(0), edges[0])
	assert.Equal(t, byte(255), edges[2])
	assert.Equal(t, byte(255), edges[3])
	assert.Equal(t, byte(0), edges[5])
}

func TestToByte(t *testing.T) {
	assert.Equal(t, byte(0), ToByte(-3))
	assert.Equal(t, byte(255), ToByte(300))
	assert.Equal(t, byte(3), ToByte(2.5))
	assert.Equal(t, byte(2), ToByte(2.49))
}
