package tableovertwo

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/AaronRDurant/table-over-two/content"
	"github.com/AaronRDurant/table-over-two/store"
)

// SiteConfig holds the settings the server and views need.
type SiteConfig struct {
	Name        string // Site name (default "Table Over Two")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr string // Listen address (default ":3000")

	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	PhotoCreditsSlug string // Post holding tag photo credits

	Social []SocialLink // Sidebar "Connect" links, rendered ahead of RSS
}

// SocialLink is one entry in the sidebar's Connect list.
type SocialLink struct {
	Label string `mapstructure:"label" validate:"required"`
	URL   string `mapstructure:"url" validate:"required,url"`
}

const defaultDescription = "Motocross and Supercross news, race reports and results."

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Table Over Two"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Description == "" {
		c.Description = defaultDescription
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.PhotoCreditsSlug == "" {
		c.PhotoCreditsSlug = content.DefaultCreditsSlug
	}
}

// Preference backends.
const (
	BackendCookie = "cookie"
	BackendSQLite = "sqlite"
)

// Config is everything read from the environment and the optional config file.
type Config struct {
	GhostAPIURL string `mapstructure:"ghost_api_url" validate:"required,url"`
	GhostAPIKey string `mapstructure:"ghost_content_api_key" validate:"required"`

	SiteName        string `mapstructure:"site_name"`
	SiteURL         string `mapstructure:"site_url" validate:"required,url"`
	SiteDescription string `mapstructure:"site_description"`
	SiteAuthor      string `mapstructure:"site_author"`

	Addr          string `mapstructure:"addr" validate:"required"`
	SessionSecret string `mapstructure:"session_secret"`
	CookieSecure  bool   `mapstructure:"cookie_secure"`

	PreferencesBackend string `mapstructure:"preferences_backend" validate:"oneof=cookie sqlite"`
	DatabasePath       string `mapstructure:"database_path" validate:"required"`

	ContentTimeout  time.Duration `mapstructure:"content_timeout" validate:"gte=0"`
	ContentCacheTTL time.Duration `mapstructure:"content_cache_ttl" validate:"gte=0"`

	PhotoCreditsSlug string            `mapstructure:"photo_credits_slug"`
	PhotoCredits     map[string]string `mapstructure:"photo_credits"`

	Social []SocialLink `mapstructure:"social" validate:"dive"`

	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// Site returns the server-facing part of the configuration.
func (c Config) Site() SiteConfig {
	return SiteConfig{
		Name:             c.SiteName,
		URL:              c.SiteURL,
		Description:      c.SiteDescription,
		Author:           c.SiteAuthor,
		Addr:             c.Addr,
		SessionSecret:    c.SessionSecret,
		CookieSecure:     c.CookieSecure,
		PhotoCreditsSlug: c.PhotoCreditsSlug,
		Social:           c.Social,
	}
}

// ClientOptions returns the content client options implied by the configuration.
func (c Config) ClientOptions(logger *slog.Logger) []content.Option {
	opts := []content.Option{
		content.WithLogger(logger),
		content.WithObserver(FetchMetrics{}),
	}
	if c.ContentTimeout > 0 {
		opts = append(opts, content.WithTimeout(c.ContentTimeout))
	}
	if c.ContentCacheTTL > 0 {
		opts = append(opts, content.WithCacheTTL(c.ContentCacheTTL))
	}
	return opts
}

// envKeys maps config keys to the environment variables that may set them,
// in order of precedence.
var envKeys = map[string][]string{
	"ghost_api_url":         {"GHOST_API_URL"},
	"ghost_content_api_key": {"GHOST_CONTENT_API_KEY", "GHOST_ADMIN_API_KEY"},
	"site_name":             {"SITE_NAME"},
	"site_url":              {"SITE_URL"},
	"site_description":      {"SITE_DESCRIPTION"},
	"site_author":           {"SITE_AUTHOR"},
	"addr":                  {"ADDR"},
	"session_secret":        {"SESSION_SECRET"},
	"cookie_secure":         {"COOKIE_SECURE"},
	"preferences_backend":   {"PREFERENCES_BACKEND"},
	"database_path":         {"DATABASE_PATH"},
	"content_timeout":       {"CONTENT_TIMEOUT"},
	"content_cache_ttl":     {"CONTENT_CACHE_TTL"},
	"photo_credits_slug":    {"PHOTO_CREDITS_SLUG"},
	"log_level":             {"LOG_LEVEL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site_name", "Table Over Two")
	v.SetDefault("site_url", "http://localhost:3000")
	v.SetDefault("site_description", defaultDescription)
	v.SetDefault("addr", ":3000")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("preferences_backend", BackendCookie)
	v.SetDefault("database_path", "data/preferences.db")
	v.SetDefault("content_timeout", 10*time.Second)
	v.SetDefault("content_cache_ttl", time.Duration(0))
	v.SetDefault("photo_credits_slug", content.DefaultCreditsSlug)
	v.SetDefault("log_level", "info")
	v.SetDefault("social", []map[string]any{
		{"label": "X", "url": "https://x.com/aarondurant80"},
		{"label": "Email", "url": "mailto:moto@aarondurant.com"},
		{"label": "YouTube", "url": "https://www.youtube.com/@aarondurant80"},
		{"label": "Instagram", "url": "https://www.instagram.com/aarondurant80/"},
	})
}

// LoadConfig reads configuration from the environment and, when cfgFile is
// set, from that file. Environment variables win over the file.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("tableovertwo: reading config: %w", err)
		}
	}
	for key, envs := range envKeys {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("tableovertwo: bind %s: %w", key, err)
		}
	}
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("tableovertwo: unmarshaling config: %w", err)
	}
	cfg.GhostAPIURL = strings.TrimSpace(cfg.GhostAPIURL)
	cfg.GhostAPIKey = strings.TrimSpace(cfg.GhostAPIKey)
	cfg.SiteURL = strings.TrimSuffix(strings.TrimSpace(cfg.SiteURL), "/")
	cfg.PreferencesBackend = strings.ToLower(strings.TrimSpace(cfg.PreferencesBackend))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateConfig reports the first invalid field as a *content.ConfigError.
func validateConfig(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &content.ConfigError{Field: fieldEnv(fe.StructField()), Reason: reason(fe)}
	}
	return fmt.Errorf("tableovertwo: validating config: %w", err)
}

var fieldEnvNames = map[string]string{
	"GhostAPIURL":        "GHOST_API_URL",
	"GhostAPIKey":        "GHOST_CONTENT_API_KEY",
	"SiteURL":            "SITE_URL",
	"Addr":               "ADDR",
	"PreferencesBackend": "PREFERENCES_BACKEND",
	"DatabasePath":       "DATABASE_PATH",
	"ContentTimeout":     "CONTENT_TIMEOUT",
	"ContentCacheTTL":    "CONTENT_CACHE_TTL",
	"LogLevel":           "LOG_LEVEL",
	"Label":              "social.label",
	"URL":                "social.url",
}

func fieldEnv(field string) string {
	if env, ok := fieldEnvNames[field]; ok {
		return env
	}
	return field
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be an absolute URL"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gte":
		return "must not be negative"
	}
	return "failed " + fe.Tag()
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory served under /public (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.Logger = l
		}
	}
}

// WithCredits replaces the photo credits source.
func WithCredits(src content.CreditsSource) Option {
	return func(a *App) {
		a.Credits = src
	}
}

// WithPreferenceStore keeps reader preferences in SQLite instead of the
// session cookie.
func WithPreferenceStore(s *store.Store) Option {
	return func(a *App) {
		a.Prefs = s
	}
}

// WithPreferenceLimit sets how many preference changes an IP may make per window.
func WithPreferenceLimit(max int, window time.Duration) Option {
	return func(a *App) {
		a.prefMax, a.prefWindow = max, window
	}
}
