package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func resetCommand(opts *rootOptions) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess, closer, err := openLocal(ctx, opts, sessionID, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closer.Close()

			if err := sess.Discard(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved progress cleared.")
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "clear a browser session slot by id")
	return cmd
}
