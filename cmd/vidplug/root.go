// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the vidplug CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vidplug",
		Short: "vidplug - a host for video frame filter plugins",
		Long: `vidplug loads frame filter plugins (builtin, shared library, out-of-process
or Lua) and drives them over generated frame streams.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/vidplug/config.yaml)")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewInspectCmd())
	cmd.AddCommand(NewValidateCmd())

	return cmd
}
