package main

import (
	"context"
	"log/slog"
	"net"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/shineum/contact-relay/internal/auth"
	"github.com/shineum/contact-relay/internal/config"
	"github.com/shineum/contact-relay/internal/httpapi"
	"github.com/shineum/contact-relay/internal/provider"
	"github.com/shineum/contact-relay/internal/relay"
	relaytls "github.com/shineum/contact-relay/internal/tls"
)

func serveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			stopTracer := startTracer(cfg)
			defer stopTracer()

			router, prov, err := buildRouter(ctx, cfg)
			if err != nil {
				slog.Error("failed to set up relay", "error", err)
				return err
			}

			serverCfg := httpapi.ServerConfig{
				ListenAddr: cfg.HTTP.Listen,
				Handler:    router,
			}
			tlsMode := "disabled"
			if cfg.TLS.Enabled {
				tlsConfig, mode, err := relaytls.LoadOrGenerateTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile, listenHost(cfg.HTTP.Listen))
				if err != nil {
					slog.Error("failed to setup TLS", "error", err)
					return err
				}
				serverCfg.TLSConfig = tlsConfig
				tlsMode = string(mode)
			}

			slog.Info("starting contact-relay",
				"listen", cfg.HTTP.Listen,
				"provider", providerName(prov),
				"auth_enabled", cfg.AuthEnabled(),
				"cors_origins", len(cfg.CORS.AllowedOrigins),
				"tls_mode", tlsMode,
				"tracing_enabled", cfg.Tracing.Enabled,
			)
			warnMissing(cfg)

			if err := httpapi.NewServer(serverCfg).ListenAndServe(ctx); err != nil {
				slog.Error("server error", "error", err)
				return err
			}

			slog.Info("contact-relay stopped")
			return nil
		},
	}
}

// buildRouter wires the provider, relay and guard into the gin router.
func buildRouter(ctx context.Context, cfg *config.Config) (*gin.Engine, provider.Provider, error) {
	prov, err := selectProvider(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.Deps{
		Guard:          auth.NewGuard(cfg.Auth.Token),
		Sender:         newRelay(cfg, prov),
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})
	return router, prov, nil
}

func newRelay(cfg *config.Config, prov provider.Provider) *relay.Relay {
	return relay.New(relay.Config{
		From:     cfg.Contact.From,
		To:       cfg.Contact.To,
		Provider: prov,
	})
}

// startTracer starts the DataDog tracer when enabled and returns its stop
// function.
func startTracer(cfg *config.Config) func() {
	if !cfg.Tracing.Enabled {
		return func() {}
	}
	tracer.Start(
		tracer.WithService(cfg.Tracing.Service),
		tracer.WithEnv(cfg.Tracing.Env),
	)
	return tracer.Stop
}

// listenHost returns the host part of a listen address for the generated
// certificate, defaulting to localhost for wildcard binds.
func listenHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" || host == "0.0.0.0" || host == "::" {
		return "localhost"
	}
	return host
}
