package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shineum/contact-relay/internal/email"
)

func sendCmd(opts *options) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Validate a JSON submission and relay it once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := readSubmission(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			prov, err := selectProvider(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			if err := newRelay(opts.cfg, prov).Send(cmd.Context(), sub); err != nil {
				slog.Error("send failed", "provider", providerName(prov), "error", err)
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "sent")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", `JSON submission file, "-" for stdin`)
	return cmd
}

// readSubmission decodes and validates a submission from path, or from
// stdin when path is "-".
func readSubmission(stdin io.Reader, path string) (*email.Submission, error) {
	r := stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open submission: %w", err)
		}
		defer f.Close()
		r = f
	}
	return email.Decode(r)
}
