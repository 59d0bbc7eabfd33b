// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lectern-ai/lectern/internal/store"
	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage conversation sessions",
	}

	cmd.AddCommand(
		newSessionListCmd(),
		newSessionClearCmd(),
	)

	return cmd
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE:  runSessionList,
	}
}

func newSessionClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <session-id>",
		Short: "Drop the stored history for a session",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionClear,
	}
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	history, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	infos, err := history.Sessions(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		_, _ = fmt.Fprintln(out, "No sessions found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tEXCHANGES\tLAST ACTIVE")
	for _, info := range infos {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", info.ID, info.Exchanges, info.LastActive.Format(time.RFC3339))
	}
	return tw.Flush()
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	history, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	if err := history.Clear(cmd.Context(), args[0]); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared session %s\n", args[0])
	return nil
}

// openHistory opens the configured history backend. The memory backend
// holds nothing between processes, which makes session commands
// meaningless against it.
func openHistory(cmd *cobra.Command) (store.HistoryStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Backend != "sqlite" {
		return nil, lecternerr.Errorf(lecternerr.CodeCLIInputInvalid,
			"session commands need a persistent backend; set storage.backend to sqlite (got %q)", cfg.Storage.Backend)
	}
	return store.NewSQLiteHistory(cfg.Storage.Path)
}
