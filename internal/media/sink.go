// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package media

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samber/oops"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// Sink consumes output frames. Write must not keep the frame after it
// returns.
type Sink interface {
	Write(ctx context.Context, f *frameplugin.Frame) error
	Close() error
}

// Encoding selects the file format written by an ImageSink.
type Encoding string

// Supported image encodings.
const (
	EncodingPNG  Encoding = "png"
	EncodingBMP  Encoding = "bmp"
	EncodingTIFF Encoding = "tiff"
)

// ParseEncoding validates an encoding name.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(s)); e {
	case EncodingPNG, EncodingBMP, EncodingTIFF:
		return e, nil
	default:
		return "", fmt.Errorf("unknown image encoding %q", s)
	}
}

func (e Encoding) encode(w io.Writer, img image.Image) error {
	switch e {
	case EncodingBMP:
		return bmp.Encode(w, img) //nolint:wrapcheck // wrapped by caller
	case EncodingTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate}) //nolint:wrapcheck // wrapped by caller
	default:
		return png.Encode(w, img) //nolint:wrapcheck // wrapped by caller
	}
}

// ImageSink writes each frame to its own numbered file in a directory.
type ImageSink struct {
	dir    string
	prefix string
	enc    Encoding
	n      int
}

// NewImageSink creates dir if needed and writes <prefix><index>.<enc>
// files into it.
func NewImageSink(dir, prefix string, enc Encoding) (*ImageSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, oops.With("dir", dir).Wrapf(err, "create output directory")
	}
	return &ImageSink{dir: dir, prefix: prefix, enc: enc}, nil
}

// NewPNGSink is NewImageSink with PNG encoding.
func NewPNGSink(dir, prefix string) (*ImageSink, error) {
	return NewImageSink(dir, prefix, EncodingPNG)
}

// Write encodes f into the next numbered file.
func (s *ImageSink) Write(_ context.Context, f *frameplugin.Frame) error {
	img := f.Image()
	if img == nil {
		return oops.Wrapf(frameplugin.ErrExpired, "write frame %d", s.n)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s%06d.%s", s.prefix, s.n, s.enc))
	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return oops.With("path", path).Wrapf(err, "create frame file")
	}
	if err := s.enc.encode(file, img); err != nil {
		_ = file.Close()
		return oops.With("path", path).Wrapf(err, "encode frame")
	}
	if err := file.Close(); err != nil {
		return oops.With("path", path).Wrapf(err, "close frame file")
	}
	s.n++
	return nil
}

// Written returns how many frames were written.
func (s *ImageSink) Written() int { return s.n }

// Close is a no-op; every frame file is closed after writing.
func (s *ImageSink) Close() error { return nil }

// HashSink writes one "index,blake2b-256-hex" line per frame. It is used
// to compare runs without storing pixels.
type HashSink struct {
	mu sync.Mutex
	w  *bufio.Writer
	c  io.Closer
	n  int
}

// NewHashSink writes hash lines to w. If w is an io.Closer it is closed by
// Close.
func NewHashSink(w io.Writer) *HashSink {
	s := &HashSink{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

// Write hashes the frame's pixels.
func (s *HashSink) Write(_ context.Context, f *frameplugin.Frame) error {
	pix := f.Pix()
	if pix == nil {
		return oops.Wrapf(frameplugin.ErrExpired, "hash frame %d", s.n)
	}
	sum := blake2b.Sum256(pix)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "%d,%s\n", s.n, hex.EncodeToString(sum[:])); err != nil {
		return oops.Wrapf(err, "write hash")
	}
	s.n++
	return nil
}

// Close flushes buffered lines and closes the underlying writer.
func (s *HashSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return oops.Wrapf(err, "flush hashes")
	}
	if s.c != nil {
		return s.c.Close() //nolint:wrapcheck // caller-supplied closer
	}
	return nil
}

// DiscardSink counts and drops frames.
type DiscardSink struct {
	n int
}

// Write drops the frame.
func (s *DiscardSink) Write(context.Context, *frameplugin.Frame) error {
	s.n++
	return nil
}

// Count returns the number of frames dropped.
func (s *DiscardSink) Count() int { return s.n }

// Close is a no-op.
func (s *DiscardSink) Close() error { return nil }
