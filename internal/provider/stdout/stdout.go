// Package stdout implements a Provider that prints relayed messages to
// standard output instead of sending them.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/contact-relay/internal/parser"
	"github.com/shineum/contact-relay/internal/provider"
)

// Provider prints messages in a human-readable format.
type Provider struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
	// raw prints the full MIME document instead of a summary.
	raw bool
}

// New creates a new stdout Provider that writes a summary to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a stdout Provider that writes to w. When raw is
// true the MIME document is written verbatim.
func NewWithWriter(w io.Writer, raw bool) *Provider {
	return &Provider{writer: w, raw: raw}
}

// Send prints the envelope. Only write errors are reported.
func (p *Provider) Send(_ context.Context, env *provider.Envelope) error {
	if p.raw {
		_, err := p.writer.Write(env.Raw)
		return err
	}

	var b strings.Builder

	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "Envelope: %s -> %s\n", env.From, env.To)

	summary, err := parser.Parse(env.Raw)
	if err != nil {
		// Fall back to the raw document so nothing is lost.
		fmt.Fprintf(&b, "Unparseable message (%v):\n%s\n", err, env.Raw)
	} else {
		fmt.Fprintf(&b, "From: %s\n", summary.From)
		fmt.Fprintf(&b, "To: %s\n", summary.To)
		fmt.Fprintf(&b, "Reply-To: %s\n", summary.ReplyTo)
		fmt.Fprintf(&b, "Subject: %s\n", summary.Subject)
		fmt.Fprintf(&b, "Message-ID: %s\n", summary.MessageID)
		b.WriteString("Body:\n")

		body := summary.TextBody
		if body == "" {
			body = summary.HTMLBody
		}
		b.WriteString(body + "\n")
		fmt.Fprintf(&b, "Size: %s\n", formatSize(len(env.Raw)))
	}

	b.WriteString("========================================\n")

	_, err = fmt.Fprint(p.writer, b.String())
	return err
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
