package main

import (
	"encoding/json"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/pkg/summary"
)

func showCommand(opts *rootOptions) *cobra.Command {
	var (
		format    string
		sessionID string
		dump      bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved progress as a summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess, closer, err := openLocal(ctx, opts, sessionID, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closer.Close()

			out := cmd.OutOrStdout()
			if dump {
				spew.Fdump(out, sess.Record())
				return nil
			}
			view := sess.Summary(ctx)
			switch format {
			case "text":
				_, err = fmt.Fprintln(out, summary.RenderText(view))
				return err
			case "json":
				raw, err := json.MarshalIndent(view, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(raw))
				return err
			}
			return fmt.Errorf("unknown format %q (want text or json)", format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	cmd.Flags().StringVar(&sessionID, "session", "", "read a browser session slot by id")
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the raw record, card number included")
	return cmd
}
