package graph

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shineum/contact-relay/internal/provider"
)

// GraphProviderConfig holds the configuration for creating a GraphProvider.
type GraphProviderConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// Sender is the mailbox the message is sent as.
	Sender string
}

// GraphProvider sends messages via Microsoft Graph. The MIME document is
// posted base64-encoded with Content-Type text/plain, which Graph accepts as
// a complete message.
type GraphProvider struct {
	sendURL    string
	httpClient *http.Client
	creds      *clientCredentials
}

// New creates a new GraphProvider with the given configuration.
func New(cfg GraphProviderConfig) *GraphProvider {
	client := &http.Client{Timeout: 30 * time.Second}
	return newWithOverrides(cfg,
		"https://graph.microsoft.com/v1.0/users/"+url.PathEscape(cfg.Sender)+"/sendMail",
		"https://login.microsoftonline.com/"+url.PathEscape(cfg.TenantID)+"/oauth2/v2.0/token",
		client,
	)
}

// newWithOverrides creates a GraphProvider with custom URLs and HTTP client,
// used for testing.
func newWithOverrides(cfg GraphProviderConfig, sendURL, tokenURL string, client *http.Client) *GraphProvider {
	return &GraphProvider{
		sendURL:    sendURL,
		httpClient: client,
		creds:      newClientCredentials(tokenURL, cfg.ClientID, cfg.ClientSecret, client),
	}
}

// Send posts the envelope's MIME document. A 401 response invalidates the
// cached token and the request is repeated once with a fresh token; every
// other failure is returned immediately.
func (g *GraphProvider) Send(ctx context.Context, env *provider.Envelope) error {
	payload := base64.StdEncoding.EncodeToString(env.Raw)

	err := g.post(ctx, payload)
	if sendErr, ok := err.(*sendError); ok && sendErr.statusCode == http.StatusUnauthorized {
		slog.Info("refreshing Graph API token after 401")
		g.creds.Invalidate()
		err = g.post(ctx, payload)
	}
	return err
}

// Name returns the provider name.
func (g *GraphProvider) Name() string {
	return "msgraph"
}

// post performs a single request to the sendMail endpoint.
func (g *GraphProvider) post(ctx context.Context, payload string) error {
	token, err := g.creds.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.sendURL, strings.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Graph API request failed: %w", err)
	}
	defer resp.Body.Close()

	// HTTP 202 Accepted is success for sendMail
	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	message := string(body)

	var errResp graphErrorResponse
	if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	return &sendError{statusCode: resp.StatusCode, message: message}
}

// sendError is a non-2xx response from the sendMail endpoint.
type sendError struct {
	statusCode int
	message    string
}

func (e *sendError) Error() string {
	return fmt.Sprintf("Graph API error (HTTP %d): %s", e.statusCode, e.message)
}
