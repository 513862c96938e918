// Package smtp implements a Provider that submits messages to an SMTP relay.
package smtp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/shineum/contact-relay/internal/provider"
)

// SMTPProviderConfig holds the relay connection settings.
type SMTPProviderConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// ImplicitTLS connects with TLS from the start (port 465 style).
	// Otherwise STARTTLS is used when the server offers it.
	ImplicitTLS bool
}

// sendFunc matches gosmtp.SendMail and gosmtp.SendMailTLS.
type sendFunc func(addr string, a sasl.Client, from string, to []string, r io.Reader) error

// SMTPProvider relays messages through an SMTP submission server.
type SMTPProvider struct {
	addr string
	auth sasl.Client
	send sendFunc
}

// New creates an SMTPProvider. Authentication is only attempted when a
// username is configured.
func New(cfg SMTPProviderConfig) *SMTPProvider {
	p := &SMTPProvider{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		send: gosmtp.SendMail,
	}
	if cfg.ImplicitTLS {
		p.send = gosmtp.SendMailTLS
	}
	if cfg.Username != "" {
		p.auth = sasl.NewPlainClient("", cfg.Username, cfg.Password)
	}
	return p
}

// Send submits the envelope. The underlying client has no context support,
// so ctx is only checked before dialing.
func (p *SMTPProvider) Send(ctx context.Context, env *provider.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.send(p.addr, p.auth, env.From, []string{env.To}, bytes.NewReader(env.Raw)); err != nil {
		return fmt.Errorf("SMTP submission to %s failed: %w", p.addr, err)
	}
	return nil
}

// Name returns the provider name.
func (p *SMTPProvider) Name() string {
	return "smtp"
}
