package graph

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shineum/contact-relay/internal/provider"
)

var testConfig = GraphProviderConfig{
	TenantID:     "test-tenant",
	ClientID:     "test-client",
	ClientSecret: "test-secret",
	Sender:       "sender@example.com",
}

func testEnvelope() *provider.Envelope {
	return &provider.Envelope{
		From: "sender@example.com",
		To:   "owner@example.com",
		Raw:  []byte("From: sender@example.com\r\nTo: owner@example.com\r\nSubject: Test\r\n\r\nBody\r\n"),
	}
}

func TestGraphProvider_Name(t *testing.T) {
	t.Parallel()

	p := &GraphProvider{}
	if p.Name() != "msgraph" {
		t.Errorf("Name: got %q, want %q", p.Name(), "msgraph")
	}
}

func TestNew_URLs(t *testing.T) {
	t.Parallel()

	p := New(testConfig)
	if p.sendURL != "https://graph.microsoft.com/v1.0/users/sender@example.com/sendMail" {
		t.Errorf("sendURL: got %q", p.sendURL)
	}
	if p.creds.tokenURL != "https://login.microsoftonline.com/test-tenant/oauth2/v2.0/token" {
		t.Errorf("tokenURL: got %q", p.creds.tokenURL)
	}
}

func TestGraphProvider_SendSuccess(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int32
	tokens := tokenServer(t, &tokenCalls, "test-token", 3600)

	env := testEnvelope()
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Authorization header: got %q, want %q", r.Header.Get("Authorization"), "Bearer test-token")
		}
		if r.Header.Get("Content-Type") != "text/plain" {
			t.Errorf("Content-Type header: got %q, want %q", r.Header.Get("Content-Type"), "text/plain")
		}

		body, _ := io.ReadAll(r.Body)
		decoded, err := base64.StdEncoding.DecodeString(string(body))
		if err != nil {
			t.Errorf("body is not base64: %v", err)
		}
		if string(decoded) != string(env.Raw) {
			t.Errorf("decoded body: got %q, want %q", decoded, env.Raw)
		}

		w.WriteHeader(http.StatusAccepted)
	}))
	defer graphServer.Close()

	p := newWithOverrides(testConfig, graphServer.URL, tokens.URL, graphServer.Client())

	if err := p.Send(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGraphProvider_ErrorNotRetried(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int32
	tokens := tokenServer(t, &tokenCalls, "token", 3600)

	tests := []struct {
		name   string
		status int
	}{
		{name: "bad request", status: http.StatusBadRequest},
		{name: "forbidden", status: http.StatusForbidden},
		{name: "throttled", status: http.StatusTooManyRequests},
		{name: "server error", status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(graphErrorResponse{
					Error: graphError{Code: "ErrorCode", Message: "Something went wrong"},
				})
			}))
			defer graphServer.Close()

			p := newWithOverrides(testConfig, graphServer.URL, tokens.URL, graphServer.Client())
			err := p.Send(context.Background(), testEnvelope())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), "Something went wrong") {
				t.Errorf("error should carry Graph message, got %v", err)
			}
			if calls.Load() != 1 {
				t.Errorf("request count: got %d, want 1", calls.Load())
			}
		})
	}
}

func TestGraphProvider_RefreshesTokenOn401(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int32
	tokens := tokenServer(t, &tokenCalls, "token", 3600)

	var calls atomic.Int32
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer graphServer.Close()

	p := newWithOverrides(testConfig, graphServer.URL, tokens.URL, graphServer.Client())
	if err := p.Send(context.Background(), testEnvelope()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("request count: got %d, want 2", calls.Load())
	}
	if tokenCalls.Load() != 2 {
		t.Errorf("token count: got %d, want 2", tokenCalls.Load())
	}
}

func TestGraphProvider_Persistent401(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int32
	tokens := tokenServer(t, &tokenCalls, "token", 3600)

	var calls atomic.Int32
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer graphServer.Close()

	p := newWithOverrides(testConfig, graphServer.URL, tokens.URL, graphServer.Client())
	if err := p.Send(context.Background(), testEnvelope()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls.Load() != 2 {
		t.Errorf("request count: got %d, want 2", calls.Load())
	}
}

func TestGraphProvider_TokenFailure(t *testing.T) {
	t.Parallel()

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer tokenSrv.Close()

	var calls atomic.Int32
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer graphServer.Close()

	p := newWithOverrides(testConfig, graphServer.URL, tokenSrv.URL, graphServer.Client())
	if err := p.Send(context.Background(), testEnvelope()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls.Load() != 0 {
		t.Errorf("sendMail must not be called without a token, got %d calls", calls.Load())
	}
}
