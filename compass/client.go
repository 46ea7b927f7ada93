package compass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/imranansari/dev-scripts/config"
)

// Client talks to the Compass events endpoint and to the per-site GraphQL gateway.
// Every call is authenticated with the Atlassian account's basic-auth pair.
type Client struct {
	credentials  config.AtlassianConfig
	eventsURL    string
	httpClient   *http.Client
	tenantClient *http.Client
	logger       zerolog.Logger
}

// NewClient creates a Compass client with per-call timeouts taken from cfg
func NewClient(credentials config.AtlassianConfig, cfg config.CompassConfig, logger zerolog.Logger) *Client {
	return &Client{
		credentials:  credentials,
		eventsURL:    cfg.EventsURL,
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
		tenantClient: &http.Client{Timeout: cfg.TenantInfoTimeout},
		logger:       logger,
	}
}

// postJSON sends body as JSON to url and returns the raw response. Responses
// outside 2xx are turned into *APIError.
func (c *Client) postJSON(ctx context.Context, url string, body any) ([]byte, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.credentials.UserEmail, c.credentials.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	c.logger.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Compass request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(http.MethodPost, url, resp.StatusCode, respBody)
		if resp.StatusCode == http.StatusUnauthorized {
			c.logger.Error().
				Str("url", url).
				Bool("email_set", c.credentials.UserEmail != "").
				Bool("api_key_set", c.credentials.APIKey != "").
				Msg("Authentication failed - check ATLASSIAN_USER_EMAIL and ATLASSIAN_USER_API_KEY")
		}
		return respBody, resp.StatusCode, apiErr
	}

	return respBody, resp.StatusCode, nil
}
