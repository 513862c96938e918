package main

import (
	"github.com/spf13/cobra"

	"github.com/shineum/contact-relay/internal/provider/stdout"
)

func previewCmd(opts *options) *cobra.Command {
	var (
		file    string
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the MIME document a submission would produce without sending it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := readSubmission(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			// Same build and envelope path as a real send, printed instead.
			out := stdout.NewWithWriter(cmd.OutOrStdout(), !summary)
			return newRelay(opts.cfg, out).Send(cmd.Context(), sub)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", `JSON submission file, "-" for stdin`)
	cmd.Flags().BoolVar(&summary, "summary", false, "print a parsed summary instead of the raw document")
	return cmd
}
