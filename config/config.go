package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/imranansari/dev-scripts/secrets"
)

// Config holds all configuration for the deployment notifier
type Config struct {
	// Atlassian account used for every Compass call
	Atlassian AtlassianConfig `envPrefix:"ATLASSIAN_"`

	// Compass API Configuration
	Compass CompassConfig `envPrefix:"COMPASS_"`

	// Forge CLI Configuration
	Forge ForgeConfig `envPrefix:"FORGE_"`

	// GitHub Configuration (commit link verification only)
	GitHub GitHubConfig `envPrefix:"GITHUB_"`

	// Application Configuration
	App AppConfig `envPrefix:"APP_"`

	// Secrets (loaded from files)
	Secrets SecretsConfig
}

type AtlassianConfig struct {
	UserEmail string `env:"USER_EMAIL"`
	APIKey    string `env:"USER_API_KEY"`

	// Alternative to USER_API_KEY for keeping the token out of the shell history
	APIKeyFile string `env:"USER_API_KEY_FILE"`
}

type CompassConfig struct {
	EventsURL         string        `env:"EVENTS_URL" envDefault:"https://api.atlassian.com/compass/v1/events"`
	EventSourceID     string        `env:"EVENT_SOURCE_ID" envDefault:"forge_cli"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	TenantInfoTimeout time.Duration `env:"TENANT_INFO_TIMEOUT" envDefault:"10s"`
}

type ForgeConfig struct {
	Binary           string        `env:"BINARY" envDefault:"forge"`
	MigrationTrigger string        `env:"MIGRATION_TRIGGER" envDefault:"sql-migrate"`
	MigrationTimeout time.Duration `env:"MIGRATION_TIMEOUT" envDefault:"30s"`
}

type GitHubConfig struct {
	// GitHub App credentials; all three are needed to read private repositories
	AppID          int64  `env:"APP_ID"`
	InstallationID int64  `env:"INSTALLATION_ID"`
	PrivateKeyPath string `env:"PRIVATE_KEY_PATH"`

	// Set GITHUB_ENTERPRISE_URL to resolve commits against Enterprise GitHub
	EnterpriseURL string `env:"ENTERPRISE_URL"`

	VerifyCommit   bool          `env:"VERIFY_COMMIT" envDefault:"true"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

// AppEnabled reports whether GitHub App authentication was configured
func (c GitHubConfig) AppEnabled() bool {
	return c.AppID != 0
}

type AppConfig struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console"`
	CatalogPath string `env:"CATALOG_PATH" envDefault:"catalog-info.yaml"`
}

type SecretsConfig struct {
	GitHubPrivateKey []byte
}

// Load loads configuration from environment variables and files
func Load() (*Config, error) {
	// Load .env file if exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := loadSecrets(cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadSecrets loads secrets from files
func loadSecrets(cfg *Config) error {
	if cfg.Atlassian.APIKey == "" && cfg.Atlassian.APIKeyFile != "" {
		key, err := secrets.LoadToken(cfg.Atlassian.APIKeyFile)
		if err != nil {
			return fmt.Errorf("failed to load Atlassian API key: %w", err)
		}
		cfg.Atlassian.APIKey = key
	}

	if cfg.GitHub.AppEnabled() {
		privateKey, err := secrets.LoadFromFile(cfg.GitHub.PrivateKeyPath)
		if err != nil {
			return fmt.Errorf("failed to load GitHub App private key: %w", err)
		}
		cfg.Secrets.GitHubPrivateKey = privateKey
	}

	return nil
}

func validateConfig(cfg *Config) error {
	var missing []string
	if cfg.Atlassian.UserEmail == "" {
		missing = append(missing, "ATLASSIAN_USER_EMAIL")
	}
	if cfg.Atlassian.APIKey == "" {
		missing = append(missing, "ATLASSIAN_USER_API_KEY")
	}
	if len(missing) > 0 {
		return &MissingCredentialsError{Variables: missing}
	}

	if cfg.GitHub.AppEnabled() && cfg.GitHub.InstallationID == 0 {
		return fmt.Errorf("GITHUB_INSTALLATION_ID is required when GITHUB_APP_ID is set")
	}
	if cfg.Compass.RequestTimeout <= 0 || cfg.Compass.TenantInfoTimeout <= 0 {
		return fmt.Errorf("compass timeouts must be positive")
	}
	if cfg.GitHub.RequestTimeout <= 0 {
		return fmt.Errorf("GITHUB_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// MissingCredentialsError is returned when the Atlassian basic-auth pair is incomplete
type MissingCredentialsError struct {
	Variables []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Variables, ", "))
}

// IsMissingCredentials reports whether err was caused by absent Atlassian credentials
func IsMissingCredentials(err error) bool {
	var target *MissingCredentialsError
	return errors.As(err, &target)
}
