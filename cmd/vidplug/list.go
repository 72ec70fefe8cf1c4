// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vidplug/vidplug/internal/config"
	"github.com/vidplug/vidplug/internal/logging"
	"github.com/vidplug/vidplug/internal/plugin"
)

// PluginInfo is the listing entry for one loaded plugin.
type PluginInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Version     string `json:"version,omitempty"`
	Topology    string `json:"topology"`
	Description string `json:"description,omitempty"`
	Dir         string `json:"dir,omitempty"`
}

func newPluginInfo(e *plugin.Entry) PluginInfo {
	return PluginInfo{
		Name:        e.Name,
		Type:        string(e.Type),
		Version:     e.Descriptor.Version,
		Topology:    e.Descriptor.Support.String(),
		Description: e.Descriptor.Description,
		Dir:         e.Dir,
	}
}

// NewListCmd creates the list subcommand.
func NewListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every plugin that loads successfully",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err //nolint:wrapcheck // already descriptive
			}
			mgr, err := loadPlugins(cmd.Context(), cfg, quietLogger(cmd))
			if err != nil {
				return err
			}
			defer func() { _ = mgr.Close(cmd.Context()) }()

			infos := make([]PluginInfo, 0)
			for _, e := range mgr.Entries() {
				infos = append(infos, newPluginInfo(e))
			}

			if jsonOutput {
				out, err := json.MarshalIndent(infos, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format JSON: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), formatPluginTable(infos))
			return nil
		},
	}

	config.RegisterPluginFlags(cmd.Flags())
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

// formatPluginTable formats plugins as a human-readable table.
func formatPluginTable(infos []PluginInfo) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "NAME\tTYPE\tVERSION\tTOPOLOGY\tDESCRIPTION")
	for _, info := range infos {
		version := info.Version
		if version == "" {
			version = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			info.Name, info.Type, version, info.Topology, info.Description)
	}

	_ = w.Flush()
	return string(buf)
}

// byteWriter is a simple io.Writer that appends to a byte slice.
type byteWriter []byte

func (b *byteWriter) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}

// quietLogger logs warnings and errors to the command's stderr, so load
// failures are visible without cluttering listings.
func quietLogger(cmd *cobra.Command) *slog.Logger {
	return logging.Setup(logging.Options{
		Service: "vidplug",
		Version: version,
		Format:  "text",
		Level:   slog.LevelWarn,
		Output:  cmd.ErrOrStderr(),
	})
}
