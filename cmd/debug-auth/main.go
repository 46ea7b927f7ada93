package main

import (
	"context"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/imranansari/dev-scripts/catalog"
	"github.com/imranansari/dev-scripts/compass"
	"github.com/imranansari/dev-scripts/config"
	"github.com/imranansari/dev-scripts/forge"
	"github.com/imranansari/dev-scripts/github"
	"github.com/imranansari/dev-scripts/logging"
	"github.com/imranansari/dev-scripts/process"
)

// debug-auth checks every credential the deployment notifier needs without
// sending events or deploying.
func main() {
	site := pflag.String("site", "", "Compass site to check the Atlassian credentials against (default: every forge installation)")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("✗ Configuration: %v\n", err)
		os.Exit(1)
	}
	logging.InitLogger("debug-auth", cfg.App.LogLevel, cfg.App.LogFormat)
	fmt.Printf("✓ Configuration loaded for %s\n", cfg.Atlassian.UserEmail)

	ctx := context.Background()
	ok := true

	forgeCLI := forge.NewCLI(cfg.Forge.Binary, process.ExecRunner{}, nil, logging.ForgeLogger())
	if user, err := forgeCLI.WhoAmI(ctx); err != nil {
		fmt.Printf("✗ Forge CLI: %v\n", err)
		ok = false
	} else {
		fmt.Printf("✓ Forge CLI logged in as %s (%s)\n", user.Name, user.AccountID)
	}

	sites := []string{*site}
	if *site == "" {
		sites = nil
		installations, err := forgeCLI.ListInstallations(ctx)
		if err != nil {
			fmt.Printf("✗ Forge installations: %v\n", err)
			ok = false
		}
		for _, inst := range installations {
			sites = append(sites, inst.Site)
		}
	}

	slug := ""
	if component, err := catalog.Load(cfg.App.CatalogPath); err == nil {
		slug = component.Name
	}

	client := compass.NewClient(cfg.Atlassian, cfg.Compass, logging.CompassLogger())
	for _, s := range sites {
		if !checkSite(ctx, client, s, slug) {
			ok = false
		}
	}

	if cfg.GitHub.AppEnabled() {
		if !checkGitHubKey(cfg) {
			ok = false
		}
	} else {
		fmt.Println("- GitHub App not configured, commit links are verified anonymously")
	}

	if !ok {
		os.Exit(1)
	}
	fmt.Println("\nAll credentials appear to be valid.")
}

func checkSite(ctx context.Context, client *compass.Client, site, slug string) bool {
	cloudID, err := client.CloudID(ctx, site)
	if err != nil {
		fmt.Printf("✗ %s: cloud ID lookup failed: %v\n", site, err)
		return false
	}
	fmt.Printf("✓ %s: cloud ID %s\n", site, cloudID)

	if slug == "" {
		fmt.Printf("- %s: no catalog-info.yaml, skipping authenticated component lookup\n", site)
		return true
	}

	componentID, err := client.FindComponentBySlug(ctx, site, cloudID, slug)
	switch {
	case compass.IsComponentNotFound(err):
		fmt.Printf("✓ %s: credentials accepted, component %q not found\n", site, slug)
	case err != nil:
		fmt.Printf("✗ %s: GraphQL request failed: %v\n", site, err)
		return false
	default:
		fmt.Printf("✓ %s: component %q is %s\n", site, slug, componentID)
	}
	return true
}

func checkGitHubKey(cfg *config.Config) bool {
	key := cfg.Secrets.GitHubPrivateKey
	fmt.Printf("- GitHub private key file size: %d bytes\n", len(key))

	if block, _ := pem.Decode(key); block != nil {
		fmt.Printf("- PEM type: %s\n", block.Type)
	}

	if err := github.ValidatePrivateKey(cfg.GitHub.AppID, key); err != nil {
		fmt.Printf("✗ GitHub App key: %v\n", err)
		return false
	}
	fmt.Printf("✓ GitHub App %d key signs JWTs\n", cfg.GitHub.AppID)
	return true
}
