// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lectern-ai/lectern/internal/config"
)

// NewRootCmd creates the root lectern command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lectern",
		Short:         "Lectern — course-materials question answering",
		Long:          "Lectern answers questions about indexed course materials through a multi-round tool-calling reasoning loop.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newAskCmd(),
		newSessionCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads the configuration named by the --config flag, or
// defaults plus environment when the flag is unset.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
