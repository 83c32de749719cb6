package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/rephrase/coordinator"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or extend the sent message history",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sent messages, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, closeFn, err := a.cfg.NewHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			msgs, err := hist.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(msgs) == 0 {
				fmt.Fprintln(out, "No messages.")
				return nil
			}
			for _, m := range msgs {
				fmt.Fprintf(out, "%s  %-12s %s\n", m.Timestamp.Local().Format(time.DateTime), m.Sender, m.Text)
			}
			return nil
		},
	}

	var sender string
	sendCmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Append a message to the history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, closeFn, err := a.cfg.NewHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			msg, err := hist.Append(cmd.Context(), sender, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg.ID)
			return nil
		},
	}
	sendCmd.Flags().StringVarP(&sender, "sender", "s", coordinator.DefaultUserID, "sender recorded with the message")

	cmd.AddCommand(listCmd, sendCmd)
	return cmd
}
