// Package relay turns validated submissions into MIME documents and hands
// them to the configured provider.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/shineum/contact-relay/internal/email"
	"github.com/shineum/contact-relay/internal/mime"
	"github.com/shineum/contact-relay/internal/provider"
)

// ConfigError reports a required setting that is missing. Nothing is built
// or sent when it is returned.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("relay: %s is not configured", e.Field)
}

// TransportError wraps a failure reported by the provider.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("relay: delivery via %s failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Config holds the fixed operator addresses and the outbound provider.
type Config struct {
	From     string
	To       string
	Provider provider.Provider
	// Builder is optional; the zero value uses the clock and random IDs.
	Builder mime.Builder
}

// Relay sends contact submissions to the operator mailbox.
type Relay struct {
	from     string
	to       string
	provider provider.Provider
	builder  mime.Builder
}

// New creates a Relay. Missing settings are not an error here; they are
// reported by Send so the server can still start and answer requests.
func New(cfg Config) *Relay {
	return &Relay{
		from:     cfg.From,
		to:       cfg.To,
		provider: cfg.Provider,
		builder:  cfg.Builder,
	}
}

// Check returns a *ConfigError for the first missing setting, or nil.
func (r *Relay) Check() error {
	switch {
	case r.from == "":
		return &ConfigError{Field: "CONTACT_FROM"}
	case r.to == "":
		return &ConfigError{Field: "CONTACT_TO"}
	case r.provider == nil:
		return &ConfigError{Field: "PROVIDER"}
	}
	return nil
}

// Build renders the MIME document for sub without sending it.
func (r *Relay) Build(sub *email.Submission) ([]byte, error) {
	if err := r.Check(); err != nil {
		return nil, err
	}
	raw, err := r.builder.Build(sub, mime.Addressing{From: r.from, To: r.to})
	if errors.Is(err, mime.ErrMissingAddress) {
		// Addresses that sanitize to nothing count as unset.
		return nil, &ConfigError{Field: "CONTACT_FROM/CONTACT_TO"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build message: %w", err)
	}
	return raw, nil
}

// Send builds the document for sub and delivers it exactly once.
func (r *Relay) Send(ctx context.Context, sub *email.Submission) (err error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "relay.send")
	defer func() { span.Finish(tracer.WithError(err)) }()

	raw, err := r.Build(sub)
	if err != nil {
		return err
	}
	span.SetTag("message.size", len(raw))

	return r.deliver(ctx, raw)
}

// Deliver sends an already built document.
func (r *Relay) Deliver(ctx context.Context, raw []byte) (err error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "relay.deliver")
	defer func() { span.Finish(tracer.WithError(err)) }()

	if err := r.Check(); err != nil {
		return err
	}
	return r.deliver(ctx, raw)
}

func (r *Relay) deliver(ctx context.Context, raw []byte) error {
	name := r.provider.Name()
	if span, ok := tracer.SpanFromContext(ctx); ok {
		span.SetTag("provider", name)
	}

	env := &provider.Envelope{
		From: envelopeAddress(r.from),
		To:   envelopeAddress(r.to),
		Raw:  raw,
	}
	if err := r.provider.Send(ctx, env); err != nil {
		return &TransportError{Provider: name, Err: err}
	}

	slog.Debug("message delivered", "provider", name, "size", len(raw))
	return nil
}

// envelopeAddress reduces a header-style address such as
// "Site <no-reply@example.com>" to its bare address. Values that do not
// parse are passed through unchanged.
func envelopeAddress(v string) string {
	addr, err := mail.ParseAddress(mime.Sanitize(v))
	if err != nil {
		return mime.Sanitize(v)
	}
	return addr.Address
}
