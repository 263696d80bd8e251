package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	tableovertwo "github.com/AaronRDurant/table-over-two"
	"github.com/AaronRDurant/table-over-two/content"
	"github.com/AaronRDurant/table-over-two/store"
	"github.com/AaronRDurant/table-over-two/views"
)

const (
	shutdownTimeout = 10 * time.Second
	pruneInterval   = 24 * time.Hour
	preferenceTTL   = 365 * 24 * time.Hour // matches the session cookie MaxAge
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the site server",
	Long: `Run the HTTP server until interrupted.

SESSION_SECRET must be set. With PREFERENCES_BACKEND=sqlite, reader
preferences are stored in DATABASE_PATH instead of the session cookie.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (overrides ADDR)")
	serveCmd.Flags().String("static", "public", "directory served under /public")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := initConfig(cmd); err != nil {
		return err
	}
	if cfg.SessionSecret == "" {
		return &content.ConfigError{Field: "SESSION_SECRET", Reason: "is required"}
	}
	client, err := newContentClient()
	if err != nil {
		return err
	}

	site := cfg.Site()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		site.Addr = addr
	}
	static, _ := cmd.Flags().GetString("static")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []tableovertwo.Option{
		tableovertwo.WithLogger(logger),
		tableovertwo.WithStaticDir(static),
		tableovertwo.WithCredits(creditsSource(client)),
	}
	if cfg.PreferencesBackend == tableovertwo.BackendSQLite {
		db, err := store.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("opening preference store: %w", err)
		}
		opts = append(opts, tableovertwo.WithPreferenceStore(db))
		go prunePreferences(ctx, db)
	}

	app := tableovertwo.New(site, client, views.Default(), opts...)
	defer app.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// creditsSource reads credits from the CMS post and falls back to the
// photo_credits table from the config file.
func creditsSource(client *content.Client) content.CreditsSource {
	fromPost := content.PostCredits{Posts: client, Slug: cfg.PhotoCreditsSlug, Logger: logger}
	if len(cfg.PhotoCredits) == 0 {
		return fromPost
	}
	return content.ChainCredits{fromPost, content.StaticCredits(cfg.PhotoCredits)}
}

func prunePreferences(ctx context.Context, db *store.Store) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.Prune(time.Now().Add(-preferenceTTL))
			if err != nil {
				logger.Warn("prune preferences", "error", err)
				continue
			}
			logger.Debug("pruned preferences", "rows", n)
		}
	}
}
