package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v58/github"
	"github.com/rs/zerolog"

	"github.com/imranansari/dev-scripts/config"
)

// defaultRequestTimeout applies when the config leaves RequestTimeout unset
const defaultRequestTimeout = 30 * time.Second

// ClientFactory creates GitHub clients for commit lookups
type ClientFactory struct {
	config     config.GitHubConfig
	privateKey []byte
	logger     zerolog.Logger
}

// NewClientFactory creates a new GitHub client factory
func NewClientFactory(cfg config.GitHubConfig, privateKey []byte, logger zerolog.Logger) *ClientFactory {
	return &ClientFactory{
		config:     cfg,
		privateKey: privateKey,
		logger:     logger,
	}
}

// CreateClient returns a GitHub App installation client when an app is configured,
// otherwise an unauthenticated client that can only see public repositories.
// GITHUB_ENTERPRISE_URL routes either kind to an Enterprise server.
func (f *ClientFactory) CreateClient(_ context.Context) (*github.Client, error) {
	if !f.config.AppEnabled() {
		client := github.NewClient(f.httpClient(http.DefaultTransport))
		if err := f.applyEnterpriseURL(client); err != nil {
			return nil, err
		}
		f.logger.Debug().Msg("Using unauthenticated GitHub client")
		return client, nil
	}

	itr, err := ghinstallation.New(
		http.DefaultTransport,
		f.config.AppID,
		f.config.InstallationID,
		f.privateKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation transport: %w", err)
	}
	if f.config.EnterpriseURL != "" {
		itr.BaseURL = enterpriseBase(f.config.EnterpriseURL) + "/api/v3"
	}

	client := github.NewClient(f.httpClient(itr))
	if err := f.applyEnterpriseURL(client); err != nil {
		return nil, err
	}

	f.logger.Info().
		Int64("app_id", f.config.AppID).
		Int64("installation_id", f.config.InstallationID).
		Str("enterprise_url", f.config.EnterpriseURL).
		Msg("GitHub installation client created successfully")

	return client, nil
}

func (f *ClientFactory) httpClient(transport http.RoundTripper) *http.Client {
	timeout := f.config.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

func (f *ClientFactory) applyEnterpriseURL(client *github.Client) error {
	if f.config.EnterpriseURL == "" {
		return nil
	}

	baseURL := enterpriseBase(f.config.EnterpriseURL)
	var err error
	if client.BaseURL, err = client.BaseURL.Parse(baseURL + "/api/v3/"); err != nil {
		return fmt.Errorf("invalid GitHub Enterprise URL %q: %w", f.config.EnterpriseURL, err)
	}
	if client.UploadURL, err = client.UploadURL.Parse(baseURL + "/api/uploads/"); err != nil {
		return fmt.Errorf("invalid GitHub Enterprise URL %q: %w", f.config.EnterpriseURL, err)
	}
	return nil
}

func enterpriseBase(url string) string {
	return strings.TrimSuffix(url, "/")
}
