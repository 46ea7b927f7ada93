package compass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/imranansari/dev-scripts/deployment"
)

type tenantInfo struct {
	CloudID string `json:"cloudId"`
}

// CloudID resolves the cloud ID of a site through its public tenant_info endpoint
func (c *Client) CloudID(ctx context.Context, siteURL string) (string, error) {
	url := deployment.SiteBaseURL(siteURL) + "_edge/tenant_info"

	c.logger.Debug().Str("site_url", siteURL).Msg("Retrieving cloud ID")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create tenant info request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.tenantClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch cloud ID from %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read tenant info from %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newAPIError(http.MethodGet, url, resp.StatusCode, body)
	}

	var info tenantInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("invalid JSON response from %s: %w", url, err)
	}
	if info.CloudID == "" {
		return "", fmt.Errorf("no cloudId in tenant info from %s", url)
	}

	c.logger.Debug().Str("site_url", siteURL).Str("cloud_id", info.CloudID).Msg("Retrieved cloud ID")
	return info.CloudID, nil
}
