// Package provider defines the interface for outbound email transports.
package provider

import (
	"context"
)

// Envelope is a fully built message together with its SMTP-level sender and
// recipient. Raw is the complete MIME document.
type Envelope struct {
	From string
	To   string
	Raw  []byte
}

// Provider is the interface that outbound transports must implement.
// A provider delivers the envelope as-is; it must not rewrite the document
// and must not retry on failure.
type Provider interface {
	// Send delivers the envelope through this provider.
	// It returns an error if the delivery fails.
	Send(ctx context.Context, env *Envelope) error

	// Name returns the human-readable name of this provider.
	Name() string
}
