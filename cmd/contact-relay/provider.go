package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shineum/contact-relay/internal/config"
	"github.com/shineum/contact-relay/internal/provider"
	"github.com/shineum/contact-relay/internal/provider/graph"
	"github.com/shineum/contact-relay/internal/provider/ses"
	"github.com/shineum/contact-relay/internal/provider/smtp"
	"github.com/shineum/contact-relay/internal/provider/stdout"
)

// selectProvider chooses the delivery backend. An explicit PROVIDER wins;
// otherwise the first configured of Graph, SES and SMTP is used. When none
// is configured the provider is nil and every send fails with a
// configuration error. stdout is only used when selected explicitly.
func selectProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "ses":
		if !cfg.SESConfigured() {
			return nil, fmt.Errorf("SES provider selected but SES_REGION is required")
		}
		return newSES(ctx, cfg, false)

	case "graph":
		if !cfg.GraphConfigured() {
			return nil, fmt.Errorf("Graph provider selected but GRAPH_TENANT_ID, GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET, and GRAPH_SENDER are required")
		}
		return newGraph(cfg, false), nil

	case "smtp":
		if !cfg.SMTPConfigured() {
			return nil, fmt.Errorf("SMTP provider selected but SMTP_HOST is required")
		}
		return newSMTP(cfg, false), nil

	case "stdout":
		slog.Info("using stdout provider")
		return stdout.New(), nil

	case "":
		switch {
		case cfg.GraphConfigured():
			return newGraph(cfg, true), nil
		case cfg.SESConfigured():
			return newSES(ctx, cfg, true)
		case cfg.SMTPConfigured():
			return newSMTP(cfg, true), nil
		}
		slog.Warn("no provider configured; set PROVIDER or provider credentials")
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func newSES(ctx context.Context, cfg *config.Config, auto bool) (provider.Provider, error) {
	slog.Info("using AWS SES provider",
		"region", cfg.SES.Region,
		"configuration_set", cfg.SES.ConfigurationSet,
		"auto_detected", auto,
	)
	p, err := ses.New(ctx, ses.SESProviderConfig{
		Region:           cfg.SES.Region,
		AccessKeyID:      cfg.SES.AccessKeyID,
		SecretAccessKey:  cfg.SES.SecretAccessKey,
		ConfigurationSet: cfg.SES.ConfigurationSet,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SES provider: %w", err)
	}
	return p, nil
}

func newGraph(cfg *config.Config, auto bool) provider.Provider {
	slog.Info("using Microsoft Graph provider",
		"sender", cfg.Graph.Sender,
		"auto_detected", auto,
	)
	return graph.New(graph.GraphProviderConfig{
		TenantID:     cfg.Graph.TenantID,
		ClientID:     cfg.Graph.ClientID,
		ClientSecret: cfg.Graph.ClientSecret,
		Sender:       cfg.Graph.Sender,
	})
}

func newSMTP(cfg *config.Config, auto bool) provider.Provider {
	slog.Info("using SMTP provider",
		"host", cfg.SMTP.Host,
		"port", cfg.SMTP.Port,
		"auth_enabled", cfg.SMTP.Username != "",
		"implicit_tls", cfg.SMTP.ImplicitTLS,
		"auto_detected", auto,
	)
	return smtp.New(smtp.SMTPProviderConfig{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		Username:    cfg.SMTP.Username,
		Password:    cfg.SMTP.Password,
		ImplicitTLS: cfg.SMTP.ImplicitTLS,
	})
}

// providerName returns the name of p for logs, or "none" when p is nil.
func providerName(p provider.Provider) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}
