package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"orgsynscraper/pkg/config"
	"orgsynscraper/pkg/logger"
	"orgsynscraper/pkg/orgsyn"
	"orgsynscraper/pkg/retry"
	"orgsynscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "orgsynscraper",
	Short: "Catalog and download procedure PDFs from orgsyn.org",
	Long: `OrgSyn Scraper crawls the orgsyn.org archive of published synthesis
procedures. The site has no API; the tool walks its web-forms postback
flow (annual volume, then page, then procedure) and recovers a link for
every published procedure PDF.

The crawl runs one independent site session per worker, retries
transient failures with a growing delay, and deduplicates procedures
that appear on more than one page.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .orgsynscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress console output except errors")

	rootCmd.SetVersionTemplate(`OrgSyn Scraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig builds the effective configuration, applies the global
// flag overrides and initializes the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if quiet {
		cfg.Logging.Level = "error"
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}

// clientOptions maps the effective configuration onto site client
// options.
func clientOptions(cfg *config.Config) orgsyn.Options {
	return orgsyn.Options{
		BaseURL:     cfg.Site.BaseURL,
		UserAgent:   cfg.Site.UserAgent,
		Timeout:     cfg.Site.RequestTimeout,
		MaxAttempts: cfg.Retry.MaxAttempts,
		Backoff:     &retry.LinearBackoff{Step: cfg.Retry.BackoffStep},
		Logger:      logger.GetLogger(),
	}
}
