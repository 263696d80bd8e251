package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	tableovertwo "github.com/AaronRDurant/table-over-two"
	"github.com/AaronRDurant/table-over-two/content"
)

var (
	cfgFile string
	verbose bool
	cfg     *tableovertwo.Config
	logger  *slog.Logger
	version = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tableovertwo",
	Short: "Table Over Two publication server",
	Long: `tableovertwo serves the Table Over Two motocross publication from a
headless content API.

Example usage:
  tableovertwo serve                 # Start the site on $ADDR
  tableovertwo posts --tag results   # List posts carrying a tag
  tableovertwo paths                 # Print every page path, one per line`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, TOML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// initConfig loads configuration and builds the logger. Commands that talk to
// the content API call it first.
func initConfig(cmd *cobra.Command) error {
	var err error
	cfg, err = tableovertwo.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger = tableovertwo.NewLogger(cmd.ErrOrStderr(), level)
	logger.Debug("configuration loaded",
		"ghost_api_url", cfg.GhostAPIURL,
		"site_url", cfg.SiteURL,
		"preferences_backend", cfg.PreferencesBackend,
	)
	return nil
}

func newContentClient() (*content.Client, error) {
	return content.NewClient(cfg.GhostAPIURL, cfg.GhostAPIKey, cfg.ClientOptions(logger)...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
