package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/rephrase/coordinator"
	"github.com/hupe1980/rephrase/step"
)

func newContextCmd(a *app) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show the tasks and events visible to a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := a.cfg.NewFixtures()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tasks := fixtures.TasksForUser(userID)
			fmt.Fprintf(out, "Tasks (%d)\n", len(tasks))
			for _, t := range tasks {
				fmt.Fprintf(out, "  %-10s %-8s due %s  %s\n", t.ID, t.Priority, t.Due.Format(step.DeadlineLayout), t.Title)
			}

			events := fixtures.EventsForUser(userID)
			fmt.Fprintf(out, "Events (%d)\n", len(events))
			for _, e := range events {
				fmt.Fprintf(out, "  %s-%s  %s\n", e.Start.Format(step.TimeLayout), e.End.Format(step.TimeLayout), e.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", coordinator.DefaultUserID, "user to show context for")
	return cmd
}
