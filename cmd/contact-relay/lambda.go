package main

import (
	"log/slog"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/shineum/contact-relay/internal/lambda"
)

func lambdaCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Serve API Gateway proxy events on AWS Lambda",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg

			stopTracer := startTracer(cfg)
			defer stopTracer()

			router, prov, err := buildRouter(cmd.Context(), cfg)
			if err != nil {
				slog.Error("failed to set up relay", "error", err)
				return err
			}

			slog.Info("starting contact-relay lambda handler",
				"provider", providerName(prov),
				"auth_enabled", cfg.AuthEnabled(),
			)
			warnMissing(cfg)

			awslambda.Start(lambda.NewHandler(router))
			return nil
		},
	}
}
