// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the indexed course materials",
		Long: `Ask runs one reasoning loop over the configured model and the course
knowledge index. Pass --session to continue an earlier conversation;
without it a fresh session is created and its ID printed for follow-ups.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringP("session", "s", "", "session ID to continue")
	cmd.Flags().StringP("model", "m", "", `model as "provider/model" (overrides models.default)`)
	cmd.Flags().Bool("sources", false, "print retrieval sources after the answer")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return lecternerr.New(lecternerr.CodeCLIInputInvalid, "question must not be empty")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	modelRef, _ := cmd.Flags().GetString("model")
	sessionID, _ := cmd.Flags().GetString("session")

	ctx := cmd.Context()
	app, err := WireApp(ctx, cfg, modelRef)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	ans, err := app.Assistant.Ask(ctx, question, sessionID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ans.Text)

	if showSources, _ := cmd.Flags().GetBool("sources"); showSources && len(ans.Sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Sources:")
		for _, src := range ans.Sources {
			if src.Link != "" {
				fmt.Fprintf(out, "  - %s (%s)\n", src.Label, src.Link)
			} else {
				fmt.Fprintf(out, "  - %s\n", src.Label)
			}
		}
	}

	if sessionID == "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "session: %s\n", ans.SessionID)
	}
	return nil
}
