package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/pkg/renderers/tui"
)

func runCommand(opts *rootOptions) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fill in the wizard from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess, closer, err := openLocal(ctx, opts, sessionID, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closer.Close()

			runner, err := tui.New(sess,
				tui.WithOutput(cmd.OutOrStdout()),
				tui.WithLogger(opts.logger),
			)
			if err != nil {
				return err
			}
			if _, err := runner.Run(ctx); err != nil {
				if errors.Is(err, tui.ErrAborted) {
					fmt.Fprintln(cmd.OutOrStdout(), "Progress saved. Run again to continue.")
					return nil
				}
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "resume a browser session slot by id")
	return cmd
}
