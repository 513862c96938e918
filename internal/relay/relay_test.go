package relay

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shineum/contact-relay/internal/email"
	"github.com/shineum/contact-relay/internal/mime"
	"github.com/shineum/contact-relay/internal/provider"
)

// recordingProvider records every envelope it is asked to send.
type recordingProvider struct {
	mu   sync.Mutex
	sent []*provider.Envelope
	err  error
}

func (p *recordingProvider) Send(_ context.Context, env *provider.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, env)
	return p.err
}

func (p *recordingProvider) Name() string { return "recording" }

func (p *recordingProvider) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func testBuilder() mime.Builder {
	return mime.Builder{
		Now:   func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) },
		NewID: func() string { return "fixed-id" },
	}
}

func testSubmission() *email.Submission {
	return &email.Submission{
		From:    email.Contact{Raw: "visitor@example.org"},
		Subject: "Hello",
		Text:    "Hi there",
	}
}

func TestRelay_Send(t *testing.T) {
	t.Parallel()

	p := &recordingProvider{}
	r := New(Config{
		From:     "Site <no-reply@example.com>",
		To:       "owner@example.com",
		Provider: p,
		Builder:  testBuilder(),
	})

	require.NoError(t, r.Send(context.Background(), testSubmission()))
	require.Equal(t, 1, p.count())

	env := p.sent[0]
	assert.Equal(t, "no-reply@example.com", env.From)
	assert.Equal(t, "owner@example.com", env.To)

	raw := string(env.Raw)
	assert.Contains(t, raw, "From: Site <no-reply@example.com>\r\n")
	assert.Contains(t, raw, "To: owner@example.com\r\n")
	assert.Contains(t, raw, "Reply-To: visitor@example.org\r\n")
	assert.Contains(t, raw, "Message-ID: <fixed-id@example.com>\r\n")
	assert.True(t, strings.HasSuffix(raw, "Hi there\r\n"))
}

func TestRelay_SendMatchesBuild(t *testing.T) {
	t.Parallel()

	p := &recordingProvider{}
	r := New(Config{From: "no-reply@example.com", To: "owner@example.com", Provider: p, Builder: testBuilder()})

	built, err := r.Build(testSubmission())
	require.NoError(t, err)
	require.NoError(t, r.Send(context.Background(), testSubmission()))
	assert.Equal(t, built, p.sent[0].Raw)
}

func TestRelay_ConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		from      string
		to        string
		noProv    bool
		wantField string
	}{
		{name: "missing from", to: "owner@example.com", wantField: "CONTACT_FROM"},
		{name: "missing to", from: "no-reply@example.com", wantField: "CONTACT_TO"},
		{name: "missing provider", from: "no-reply@example.com", to: "owner@example.com", noProv: true, wantField: "PROVIDER"},
		{name: "from sanitizes to empty", from: "\r\n", to: "owner@example.com", wantField: "CONTACT_FROM/CONTACT_TO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &recordingProvider{}
			cfg := Config{From: tt.from, To: tt.to, Provider: p}
			if tt.noProv {
				cfg.Provider = nil
			}

			err := New(cfg).Send(context.Background(), testSubmission())

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
			assert.Zero(t, p.count(), "nothing may be sent on a configuration error")
		})
	}
}

func TestRelay_TransportError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	p := &recordingProvider{err: cause}
	r := New(Config{From: "no-reply@example.com", To: "owner@example.com", Provider: p})

	err := r.Send(context.Background(), testSubmission())

	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "recording", tErr.Provider)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, p.count(), "failed deliveries are not retried")
}

func TestRelay_Deliver(t *testing.T) {
	t.Parallel()

	p := &recordingProvider{}
	r := New(Config{From: "no-reply@example.com", To: "owner@example.com", Provider: p})

	raw := []byte("Subject: prebuilt\r\n\r\nbody\r\n")
	require.NoError(t, r.Deliver(context.Background(), raw))
	require.Equal(t, 1, p.count())
	assert.Equal(t, raw, p.sent[0].Raw)

	var cfgErr *ConfigError
	err := New(Config{Provider: p}).Deliver(context.Background(), raw)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, 1, p.count())
}

func TestEnvelopeAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"owner@example.com", "owner@example.com"},
		{"Owner <owner@example.com>", "owner@example.com"},
		{"\"Jane, Doe\" <jane@example.com>", "jane@example.com"},
		{"not an address", "not an address"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, envelopeAddress(tt.in), tt.in)
	}
}
