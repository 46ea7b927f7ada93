package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/imranansari/dev-scripts/deployment"
)

// MigrationHook triggers the app's migration web trigger after a deploy
type MigrationHook struct {
	forge      ForgeCLI
	trigger    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewMigrationHook creates a hook for the web trigger key. An empty key disables it.
func NewMigrationHook(forge ForgeCLI, trigger string, timeout time.Duration, logger zerolog.Logger) *MigrationHook {
	return &MigrationHook{
		forge:      forge,
		trigger:    trigger,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type migrationResponse struct {
	Success             bool   `json:"success"`
	Status              string `json:"status"`
	PendingMigrations   *int   `json:"pendingMigrations"`
	CompletedMigrations int    `json:"completedMigrations"`
	TotalMigrations     int    `json:"totalMigrations"`
	Message             string `json:"message"`
	Error               string `json:"error"`
}

// Run triggers the migration on the installation whose Forge environment
// matches environment. A trigger that is not deployed, an unreachable trigger
// and a non-2xx response are warnings; a migration that reports failure or
// pending work returns *MigrationError.
func (h *MigrationHook) Run(ctx context.Context, installations []deployment.Installation, environment string) error {
	if h == nil || h.trigger == "" || len(installations) == 0 {
		return nil
	}

	inst, err := installationFor(installations, environment)
	if err != nil {
		return err
	}

	url, err := h.forge.WebTriggerURL(ctx, h.trigger, inst.Host(), environment)
	if err != nil {
		h.logger.Warn().Err(err).Str("trigger", h.trigger).Msg("Failed to get web trigger URL, skipping migration")
		return nil
	}
	if url == "" {
		return nil
	}

	h.logger.Info().
		Str("trigger", h.trigger).
		Str("site_url", inst.SiteURL).
		Msg("Triggering migration via web trigger")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader("{}"))
	if err != nil {
		return fmt.Errorf("failed to create web trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to trigger migration - deployment will continue, migrations were not triggered")
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to read web trigger response")
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		h.logger.Warn().
			Int("status_code", resp.StatusCode).
			Str("body", strings.TrimSpace(string(body))).
			Msg("Migration trigger returned an error status - check migration status manually")
		return nil
	}

	var result migrationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		h.logger.Info().Msg("Migration triggered successfully (response not in JSON format)")
		return nil
	}

	pending := -1
	if result.PendingMigrations != nil {
		pending = *result.PendingMigrations
	}
	if !result.Success || result.Status != "SUCCESS" || pending > 0 {
		message := result.Message
		if !result.Success && result.Error != "" {
			message = result.Error
		}
		return &MigrationError{
			Trigger:   h.trigger,
			Status:    result.Status,
			Pending:   pending,
			Completed: result.CompletedMigrations,
			Total:     result.TotalMigrations,
			Message:   message,
		}
	}

	h.logger.Info().
		Str("status", result.Status).
		Int("completed", result.CompletedMigrations).
		Int("total", result.TotalMigrations).
		Str("message", result.Message).
		Msg("Migrations completed successfully")
	return nil
}

func installationFor(installations []deployment.Installation, environment string) (deployment.Installation, error) {
	var available []string
	for _, inst := range installations {
		if strings.EqualFold(inst.EnvironmentLabel, environment) {
			return inst, nil
		}
		available = append(available, inst.EnvironmentLabel)
	}
	return deployment.Installation{}, fmt.Errorf("no installation found for environment %q, available environments: %s",
		environment, strings.Join(available, ", "))
}
