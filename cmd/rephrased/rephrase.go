package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/rephrase/coordinator"
	"github.com/hupe1980/rephrase/core"
)

func newRephraseCmd(a *app) *cobra.Command {
	var (
		userID     string
		noTasks    bool
		noCalendar bool
		asJSON     bool
		send       bool
	)

	cmd := &cobra.Command{
		Use:   "rephrase <message>",
		Short: "Rephrase a single message",
		Example: `  rephrased rephrase "Need this today" --user alice
  rephrased rephrase "Can we talk now?" --no-tasks --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = p.close() }()

			sug, err := p.coord.Rephrase(cmd.Context(), coordinator.Request{
				UserID:          userID,
				Message:         strings.Join(args, " "),
				IncludeTasks:    !noTasks,
				IncludeCalendar: !noCalendar,
			})
			if err != nil {
				return err
			}

			if send {
				if _, err := p.history.Append(cmd.Context(), userID, sug.Text); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sug)
			}

			fmt.Fprintln(out, sug.Text)
			fmt.Fprintf(out, "  winner: %s\n", sug.Winner)
			for _, t := range core.Tiers {
				if st, ok := sug.Analysis.Steps[t]; ok {
					fmt.Fprintf(out, "  %-8s %s\n", t+":", st)
				}
			}
			if sug.Confidence != nil {
				fmt.Fprintf(out, "  confidence: %.2f\n", *sug.Confidence)
			}
			if sug.Completion != "" {
				fmt.Fprintf(out, "  continue with: %s\n", sug.Completion)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", coordinator.DefaultUserID, "author whose tasks and calendar enrich the rewrite")
	cmd.Flags().BoolVar(&noTasks, "no-tasks", false, "skip the task context step")
	cmd.Flags().BoolVar(&noCalendar, "no-calendar", false, "skip the calendar context step")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full suggestion as JSON")
	cmd.Flags().BoolVar(&send, "send", false, "append the rewrite to the message history")
	return cmd
}
