// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package frameplugin

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// PixelFormat tags the memory layout of a frame. The contract treats it as
// opaque; modules may inspect it.
type PixelFormat uint8

// Supported pixel formats.
const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatGray8
	PixelFormatBGR24
	PixelFormatRGBA8
)

// BytesPerPixel returns the packed pixel size, or 0 for unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatGray8:
		return 1
	case PixelFormatBGR24:
		return 3
	case PixelFormatRGBA8:
		return 4
	default:
		return 0
	}
}

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatGray8:
		return "gray8"
	case PixelFormatBGR24:
		return "bgr24"
	case PixelFormatRGBA8:
		return "rgba8"
	default:
		return "unknown"
	}
}

// ParsePixelFormat parses the names produced by PixelFormat.String.
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gray8", "gray":
		return PixelFormatGray8, nil
	case "bgr24", "bgr":
		return PixelFormatBGR24, nil
	case "rgba8", "rgba":
		return PixelFormatRGBA8, nil
	default:
		return PixelFormatUnknown, oops.With("format", s).Errorf("unknown pixel format %q", s)
	}
}

// FrameConfig describes the geometry and layout of one frame stream.
type FrameConfig struct {
	Width  int
	Height int
	Format PixelFormat
}

// Validate checks that the geometry is positive and the format known.
func (c FrameConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return oops.With("width", c.Width).With("height", c.Height).
			Wrapf(ErrGeometry, "dimensions must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Format.BytesPerPixel() == 0 {
		return oops.With("format", c.Format.String()).Wrapf(ErrGeometry, "unknown pixel format")
	}
	return nil
}

// Stride returns the row length in bytes. Frames are tightly packed.
func (c FrameConfig) Stride() int {
	return c.Width * c.Format.BytesPerPixel()
}

// Size returns the byte length of one frame.
func (c FrameConfig) Size() int {
	return c.Stride() * c.Height
}

// SameGeometry reports whether both configs share width and height.
func (c FrameConfig) SameGeometry(o FrameConfig) bool {
	return c.Width == o.Width && c.Height == o.Height
}

func (c FrameConfig) String() string {
	return fmt.Sprintf("%dx%d %s", c.Width, c.Height, c.Format)
}

// DefaultOutputConfigs returns the baseline output configs: output i
// inherits input i, or input 0 when i is past the last input.
func DefaultOutputConfigs(inputs []FrameConfig, nbOutputs int) []FrameConfig {
	outputs := make([]FrameConfig, nbOutputs)
	if len(inputs) == 0 {
		return outputs
	}
	for i := range outputs {
		src := inputs[0]
		if i < len(inputs) {
			src = inputs[i]
		}
		outputs[i] = src
	}
	return outputs
}
