package httpapi

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	relaytls "github.com/shineum/contact-relay/internal/tls"
)

func startServer(t *testing.T, cfg ServerConfig) (*Server, context.CancelFunc, <-chan error) {
	t.Helper()

	srv := NewServer(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not start")
	}
	return srv, cancel, done
}

func waitStopped(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_ServesAndShutsDown(t *testing.T) {
	p := &countingProvider{}
	srv, cancel, done := startServer(t, ServerConfig{
		ListenAddr: "127.0.0.1:0",
		Handler:    newTestRouter(p),
	})

	req, err := http.NewRequest(http.MethodPost, "http://"+srv.Addr()+EmailPath, strings.NewReader(validBody))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, p.count())

	cancel()
	waitStopped(t, done)
}

func TestServer_TLS(t *testing.T) {
	tlsConfig, _, err := relaytls.LoadOrGenerateTLS("", "", "localhost")
	require.NoError(t, err)

	srv, cancel, done := startServer(t, ServerConfig{
		ListenAddr: "127.0.0.1:0",
		Handler:    newTestRouter(&countingProvider{}),
		TLSConfig:  tlsConfig,
	})

	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}}
	resp, err := client.Post("https://"+srv.Addr()+EmailPath, "application/json", strings.NewReader(validBody))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotNil(t, resp.TLS)

	cancel()
	waitStopped(t, done)
}

func TestServer_ListenError(t *testing.T) {
	srv := NewServer(ServerConfig{ListenAddr: "256.0.0.1:bad", Handler: http.NotFoundHandler()})
	assert.Error(t, srv.ListenAndServe(context.Background()))
	assert.Empty(t, srv.Addr())
}
