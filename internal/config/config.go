// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package config loads run configuration from a YAML file and command-line
// flags. Flags that were set explicitly override the file; the file
// overrides flag defaults.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/vidplug/vidplug/internal/host"
	"github.com/vidplug/vidplug/internal/logging"
	"github.com/vidplug/vidplug/internal/media"
	"github.com/vidplug/vidplug/internal/plugin"
	"github.com/vidplug/vidplug/internal/xdg"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// Default values.
const (
	DefaultWidth     = 320
	DefaultHeight    = 240
	DefaultFormat    = "bgr24"
	DefaultFrames    = 30
	DefaultOutputs   = 1
	DefaultSink      = "png"
	DefaultLogFormat = "text"
	DefaultLogLevel  = "info"
)

// Sink names accepted by Config.Sink. Image encodings are listed by
// media.ParseEncoding.
const (
	SinkHash    = "hash"
	SinkDiscard = "discard"
)

// Config is one pipeline run.
type Config struct {
	Plugin      string   `koanf:"plugin"`
	PluginsDir  string   `koanf:"plugins-dir"`
	Builtins    bool     `koanf:"builtins"`
	Filter      string   `koanf:"filter"`
	Params      string   `koanf:"params"`
	ParamPolicy string   `koanf:"param-policy"`
	Inputs      []string `koanf:"inputs"`
	Outputs     int      `koanf:"outputs"`
	Frames      int      `koanf:"frames"`
	Width       int      `koanf:"width"`
	Height      int      `koanf:"height"`
	Format      string   `koanf:"format"`
	OutputDir   string   `koanf:"output-dir"`
	Sink        string   `koanf:"sink"`
	LogFormat   string   `koanf:"log-format"`
	LogLevel    string   `koanf:"log-level"`
	MetricsAddr string   `koanf:"metrics-addr"`
}

// Default returns the configuration used when neither file nor flags set
// a key.
func Default() *Config {
	return &Config{
		PluginsDir:  xdg.PluginsDir(),
		Builtins:    true,
		ParamPolicy: string(host.ParamsLenient),
		Inputs:      []string{"testsrc"},
		Outputs:     DefaultOutputs,
		Frames:      DefaultFrames,
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Format:      DefaultFormat,
		OutputDir:   ".",
		Sink:        DefaultSink,
		LogFormat:   DefaultLogFormat,
		LogLevel:    DefaultLogLevel,
	}
}

// RegisterFlags adds a flag for every key to fs, using the values of
// Default as flag defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	RegisterPluginFlags(fs)
	fs.String("plugin", d.Plugin, "plugin to run")
	fs.String("params", d.Params, "parameter string handed to the plugin's Init")
	fs.String("param-policy", d.ParamPolicy, "how unknown or invalid parameters are treated (lenient or strict)")
	fs.StringSlice("inputs", d.Inputs, "input sources: testsrc, color:#rrggbb or color:r,g,b")
	fs.Int("outputs", d.Outputs, "number of plugin outputs")
	fs.Int("frames", d.Frames, "frames per source (negative runs until interrupted)")
	fs.Int("width", d.Width, "input width in pixels")
	fs.Int("height", d.Height, "input height in pixels")
	fs.String("format", d.Format, "input pixel format (gray8, bgr24 or rgba8)")
	fs.String("output-dir", d.OutputDir, "directory for image sinks")
	fs.String("sink", d.Sink, "output sink: png, bmp, tiff, hash or discard")
	fs.String("log-format", d.LogFormat, "log format (json or text)")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn or error)")
	fs.String("metrics-addr", d.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
}

// RegisterPluginFlags adds only the keys that control plugin discovery.
func RegisterPluginFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("plugins-dir", d.PluginsDir, "directory searched for plugin manifests")
	fs.Bool("builtins", d.Builtins, "register the builtin filters before loading plugins from disk")
	fs.String("filter", d.Filter, "glob restricting which plugin names are loaded")
}

// Load reads path, then the flags in fs. An empty path falls back to the
// XDG config file if it exists. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = xdg.ConfigFile()
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration describes a runnable pipeline.
func (c *Config) Validate() error {
	var errs []error
	if c.Plugin == "" {
		errs = append(errs, errors.New("plugin is required"))
	}
	if len(c.Inputs) == 0 {
		errs = append(errs, errors.New("at least one input is required"))
	}
	if c.Outputs < 0 {
		errs = append(errs, fmt.Errorf("outputs must not be negative, got %d", c.Outputs))
	}
	if c.Frames == 0 {
		errs = append(errs, errors.New("frames must not be zero"))
	}
	if _, err := c.FrameConfig(); err != nil {
		errs = append(errs, err)
	}
	if _, err := host.ParseParamPolicy(c.ParamPolicy); err != nil {
		errs = append(errs, err)
	}
	if _, err := plugin.CompileFilter(c.Filter); err != nil {
		errs = append(errs, err)
	}
	switch c.Sink {
	case SinkHash, SinkDiscard:
	default:
		if _, err := media.ParseEncoding(c.Sink); err != nil {
			errs = append(errs, err)
		}
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("log-format must be 'json' or 'text', got %q", c.LogFormat))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// FrameConfig returns the geometry every input source produces.
func (c *Config) FrameConfig() (frameplugin.FrameConfig, error) {
	format, err := frameplugin.ParsePixelFormat(c.Format)
	if err != nil {
		return frameplugin.FrameConfig{}, err
	}
	fc := frameplugin.FrameConfig{Width: c.Width, Height: c.Height, Format: format}
	if err := fc.Validate(); err != nil {
		return frameplugin.FrameConfig{}, err
	}
	return fc, nil
}
