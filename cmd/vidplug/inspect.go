// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vidplug/vidplug/internal/config"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// ParamInfo describes one declared parameter.
type ParamInfo struct {
	Key         string   `json:"key"`
	Kind        string   `json:"kind"`
	Default     string   `json:"default,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Odd         bool     `json:"odd,omitempty"`
	Description string   `json:"description,omitempty"`
}

// PluginDetail is the inspect output for one plugin.
type PluginDetail struct {
	PluginInfo
	APIVersion int         `json:"api_version"`
	Params     []ParamInfo `json:"params"`
}

func newParamInfo(spec frameplugin.ParamSpec) ParamInfo {
	info := ParamInfo{
		Key:         spec.Key,
		Kind:        spec.Kind.String(),
		Default:     spec.Default,
		Odd:         spec.Odd,
		Description: spec.Description,
	}
	// Min == Max == 0 declares no clamp.
	if spec.Min != 0 || spec.Max != 0 {
		lo, hi := spec.Min, spec.Max
		info.Min, info.Max = &lo, &hi
	}
	return info
}

// NewInspectCmd creates the inspect subcommand.
func NewInspectCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect <plugin>",
		Short: "Show a plugin's descriptor and parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err //nolint:wrapcheck // already descriptive
			}
			mgr, err := loadPlugins(cmd.Context(), cfg, quietLogger(cmd))
			if err != nil {
				return err
			}
			defer func() { _ = mgr.Close(cmd.Context()) }()

			e, ok := mgr.Lookup(args[0])
			if !ok {
				return fmt.Errorf("plugin %q not found", args[0])
			}

			detail := PluginDetail{
				PluginInfo: newPluginInfo(e),
				APIVersion: e.Descriptor.APIVersion,
				Params:     make([]ParamInfo, 0, len(e.Descriptor.Params)),
			}
			for _, spec := range e.Descriptor.Params {
				detail.Params = append(detail.Params, newParamInfo(spec))
			}

			if jsonOutput {
				out, err := json.MarshalIndent(detail, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format JSON: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), formatPluginDetail(detail))
			return nil
		},
	}

	config.RegisterPluginFlags(cmd.Flags())
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func formatPluginDetail(d PluginDetail) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name:        %s\n", d.Name)
	fmt.Fprintf(&sb, "Type:        %s\n", d.Type)
	if d.Version != "" {
		fmt.Fprintf(&sb, "Version:     %s\n", d.Version)
	}
	fmt.Fprintf(&sb, "API version: %d\n", d.APIVersion)
	fmt.Fprintf(&sb, "Topology:    %s\n", d.Topology)
	if d.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", d.Description)
	}
	if d.Dir != "" {
		fmt.Fprintf(&sb, "Directory:   %s\n", d.Dir)
	}
	if len(d.Params) == 0 {
		sb.WriteString("Params:      none\n")
		return sb.String()
	}

	sb.WriteString("Params:\n")
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "  KEY\tKIND\tDEFAULT\tRANGE\tDESCRIPTION")
	for _, p := range d.Params {
		rng := "-"
		if p.Min != nil && p.Max != nil {
			rng = fmt.Sprintf("[%g, %g]", *p.Min, *p.Max)
		}
		if p.Odd {
			rng += " odd"
		}
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", p.Key, p.Kind, p.Default, rng, p.Description)
	}
	_ = w.Flush()
	return sb.String()
}
