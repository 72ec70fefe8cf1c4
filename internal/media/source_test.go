// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package media_test

import (
	"context"
	"image/color"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidplug/vidplug/internal/host"
	"github.com/vidplug/vidplug/internal/media"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

func drain(t *testing.T, src media.Source) [][]byte {
	t.Helper()
	var frames [][]byte
	for {
		b, err := src.Next(context.Background())
		if err == io.EOF {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, append([]byte(nil), b.Bytes()...))
		b.Unref()
	}
}

func TestColorSource_FillsEveryFormat(t *testing.T) {
	tests := []struct {
		format frameplugin.PixelFormat
		want   []byte
	}{
		{frameplugin.PixelFormatRGBA8, []byte{10, 20, 30, 255}},
		{frameplugin.PixelFormatBGR24, []byte{30, 20, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			pool := host.NewBufferPool()
			cfg := frameplugin.FrameConfig{Width: 3, Height: 2, Format: tt.format}
			src, err := media.NewColorSource(cfg, color.RGBA{10, 20, 30, 255}, 2, pool)
			require.NoError(t, err)
			assert.Equal(t, cfg, src.Config())

			frames := drain(t, src)
			require.Len(t, frames, 2)
			for _, f := range frames {
				require.Len(t, f, cfg.Size())
				assert.Equal(t, tt.want, f[:len(tt.want)])
				assert.Equal(t, tt.want, f[len(f)-len(tt.want):])
			}
			assert.Zero(t, pool.Outstanding())
		})
	}
}

func TestTestSource_ScrollsBetweenFrames(t *testing.T) {
	pool := host.NewBufferPool()
	cfg := frameplugin.FrameConfig{Width: 16, Height: 8, Format: frameplugin.PixelFormatGray8}
	src, err := media.NewTestSource(cfg, 3, pool)
	require.NoError(t, err)

	frames := drain(t, src)
	require.Len(t, frames, 3)
	assert.NotEqual(t, frames[0], frames[1])
	// The bar half does not move.
	half := cfg.Size() / 2
	assert.Equal(t, frames[0][half:], frames[2][half:])
	assert.Zero(t, pool.Outstanding())
}

func TestSource_ContextCanceled(t *testing.T) {
	pool := host.NewBufferPool()
	cfg := frameplugin.FrameConfig{Width: 2, Height: 2, Format: frameplugin.PixelFormatGray8}
	src, err := media.NewTestSource(cfg, -1, pool)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_InvalidConfig(t *testing.T) {
	_, err := media.NewTestSource(frameplugin.FrameConfig{Width: 0, Height: 2, Format: frameplugin.PixelFormatGray8}, 1, host.NewBufferPool())
	assert.Error(t, err)
}

func TestParseSource(t *testing.T) {
	pool := host.NewBufferPool()
	cfg := frameplugin.FrameConfig{Width: 2, Height: 2, Format: frameplugin.PixelFormatRGBA8}

	for _, spec := range []string{"testsrc", "color:#ff8000", "color:1,2,3"} {
		t.Run(spec, func(t *testing.T) {
			src, err := media.ParseSource(spec, cfg, 1, pool)
			require.NoError(t, err)
			assert.Len(t, drain(t, src), 1)
		})
	}

	for _, spec := range []string{"camera", "color:red", "color:#fff", "color:1,2"} {
		t.Run("bad "+spec, func(t *testing.T) {
			_, err := media.ParseSource(spec, cfg, 1, pool)
			assert.Error(t, err)
		})
	}
}

func TestParseColor(t *testing.T) {
	c, err := media.ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 128, 0, 255}, c)

	c, err = media.ParseColor(" 1, 2 ,3 ")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, c)

	_, err = media.ParseColor("256,0,0")
	assert.Error(t, err)
}
