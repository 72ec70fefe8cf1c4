// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package media provides synthetic frame sources and frame sinks for
// driving a filter from the command line.
package media

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/image/draw"

	"github.com/vidplug/vidplug/internal/host"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// Source produces input frames. Next returns io.EOF once the stream ends.
// The caller owns one reference to every returned buffer.
type Source interface {
	Config() frameplugin.FrameConfig
	Next(ctx context.Context) (*frameplugin.Buffer, error)
}

// generator renders frame n into dst.
type generator func(dst draw.Image, n int)

// genSource produces a fixed number of generated frames.
type genSource struct {
	cfg    frameplugin.FrameConfig
	pool   *host.BufferPool
	frames int
	next   int
	render generator
}

func (s *genSource) Config() frameplugin.FrameConfig { return s.cfg }

func (s *genSource) Next(ctx context.Context) (*frameplugin.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck // context errors are returned as-is
	}
	if s.frames >= 0 && s.next >= s.frames {
		return nil, io.EOF
	}
	b, err := s.pool.Get(s.cfg)
	if err != nil {
		return nil, err
	}
	slot := frameplugin.NewSlot(b)
	dst, err := slot.DrawImage()
	if err != nil {
		b.Unref()
		return nil, err
	}
	s.render(dst, s.next)
	s.next++
	return b, nil
}

// NewTestSource returns a source of frames showing a horizontal gradient
// that scrolls by 8 levels per frame over a row of colour bars. A negative
// frame count never ends.
func NewTestSource(cfg frameplugin.FrameConfig, frames int, pool *host.BufferPool) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scratch := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	return &genSource{
		cfg:    cfg,
		pool:   pool,
		frames: frames,
		render: func(dst draw.Image, n int) {
			renderTestPattern(scratch, n)
			draw.Draw(dst, dst.Bounds(), scratch, image.Point{}, draw.Src)
		},
	}, nil
}

// barColors are the classic SMPTE-style bars.
var barColors = []color.RGBA{
	{192, 192, 192, 255},
	{192, 192, 0, 255},
	{0, 192, 192, 255},
	{0, 192, 0, 255},
	{192, 0, 192, 255},
	{192, 0, 0, 255},
	{0, 0, 192, 255},
	{16, 16, 16, 255},
}

func renderTestPattern(img *image.RGBA, n int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	split := h / 2
	for y := range h {
		for x := range w {
			if y < split {
				v := uint8((x*255/max(w-1, 1) + n*8) % 256)
				img.SetRGBA(x, y, color.RGBA{v, v, 255 - v, 255})
				continue
			}
			img.SetRGBA(x, y, barColors[x*len(barColors)/w])
		}
	}
}

// NewColorSource returns a source of identical solid frames. A negative
// frame count never ends.
func NewColorSource(cfg frameplugin.FrameConfig, c color.Color, frames int, pool *host.BufferPool) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	u := image.NewUniform(c)
	return &genSource{
		cfg:    cfg,
		pool:   pool,
		frames: frames,
		render: func(dst draw.Image, _ int) {
			draw.Draw(dst, dst.Bounds(), u, image.Point{}, draw.Src)
		},
	}, nil
}

// ParseSource builds a source from a spec string:
//
//	testsrc
//	color:#rrggbb
//	color:r,g,b
func ParseSource(spec string, cfg frameplugin.FrameConfig, frames int, pool *host.BufferPool) (Source, error) {
	kind, arg, _ := strings.Cut(spec, ":")
	switch kind {
	case "testsrc":
		return NewTestSource(cfg, frames, pool)
	case "color":
		c, err := ParseColor(arg)
		if err != nil {
			return nil, err
		}
		return NewColorSource(cfg, c, frames, pool)
	default:
		return nil, oops.With("spec", spec).Errorf("unknown source %q, want testsrc or color:<value>", kind)
	}
}

// ParseColor accepts #rrggbb or r,g,b with components in 0..255.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "#"); ok {
		if len(rest) != 6 {
			return color.RGBA{}, fmt.Errorf("color %q: want #rrggbb", s)
		}
		v, err := strconv.ParseUint(rest, 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil //nolint:gosec // 24-bit value
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("color %q: want #rrggbb or r,g,b", s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("color %q: component %d: %w", s, i, err)
		}
		rgb[i] = uint8(v)
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}
