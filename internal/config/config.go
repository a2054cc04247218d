// Package config loads and validates gateway configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures all gateway configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Origin     OriginConfig     `mapstructure:"origin"`
	DocStore   DocStoreConfig   `mapstructure:"docstore"`
	Routes     RoutesConfig     `mapstructure:"routes"`
	Storefront StorefrontConfig `mapstructure:"storefront"`
	Render     RenderConfig     `mapstructure:"render"`
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	Events     EventsConfig     `mapstructure:"events"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	AdminPrefix string `mapstructure:"admin_prefix"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// OriginConfig points at the SPA origin and bounds the sanitized shell fetch.
type OriginConfig struct {
	URL          string        `mapstructure:"url"`
	Backend      string        `mapstructure:"backend"`
	UserAgent    string        `mapstructure:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBodyBytes int           `mapstructure:"max_body_bytes"`
	GCS          GCSConfig     `mapstructure:"gcs"`
}

// GCSConfig locates the compiled SPA shell inside a bucket.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket"`
	Object string `mapstructure:"object"`
}

// DocStoreConfig configures the product document store.
type DocStoreConfig struct {
	Backend    string         `mapstructure:"backend"`
	ProjectID  string         `mapstructure:"project_id"`
	APIKey     string         `mapstructure:"api_key"`
	BaseURL    string         `mapstructure:"base_url"`
	Collection string         `mapstructure:"collection"`
	Timeout    time.Duration  `mapstructure:"timeout"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig is used when the catalogue lives in Postgres.
type PostgresConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// RoutesConfig describes the SPA paths the gateway understands.
type RoutesConfig struct {
	ProductPrefix string `mapstructure:"product_prefix"`
}

// StorefrontConfig holds the branding written into synthesized metadata.
type StorefrontConfig struct {
	Name           string `mapstructure:"name"`
	BaseURL        string `mapstructure:"base_url"`
	Currency       string `mapstructure:"currency"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
	Locale         string `mapstructure:"locale"`
	ThemeColor     string `mapstructure:"theme_color"`
	TwitterSite    string `mapstructure:"twitter_site"`
}

// RenderConfig tunes the HTML transformer.
type RenderConfig struct {
	StripMarkers     []string `mapstructure:"strip_markers"`
	RootSelector     string   `mapstructure:"root_selector"`
	LoadingSelectors []string `mapstructure:"loading_selectors"`
}

// GatewayConfig holds orchestrator feature flags.
type GatewayConfig struct {
	ForceVisibleAllRoutes bool `mapstructure:"force_visible_all_routes"`
}

// EventsConfig selects where render audit events go.
type EventsConfig struct {
	Backend   string        `mapstructure:"backend"`
	ProjectID string        `mapstructure:"project_id"`
	Topic     string        `mapstructure:"topic"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// TracingConfig controls OpenTelemetry setup.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ProjectID   string `mapstructure:"project_id"`
	ServiceName string `mapstructure:"service_name"`
}

// envAliases lets deployments keep the variable names the storefront build
// already exports for the document store.
var envAliases = map[string][]string{
	"server.port":           {"GATEWAY_SERVER_PORT", "PORT"},
	"docstore.project_id":   {"GATEWAY_DOCSTORE_PROJECT_ID", "FIREBASE_PROJECT_ID", "VITE_FIREBASE_PROJECT_ID"},
	"docstore.api_key":      {"GATEWAY_DOCSTORE_API_KEY", "FIREBASE_API_KEY", "VITE_FIREBASE_API_KEY"},
	"docstore.postgres.dsn": {"GATEWAY_DOCSTORE_POSTGRES_DSN", "DATABASE_URL"},
}

// LoadDotEnv populates the process environment from a dotenv file. A missing
// default file is not an error; an explicitly requested one is.
func LoadDotEnv(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !isNotExist(err) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.admin_prefix", "/_gateway")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "")
	v.SetDefault("origin.url", "")
	v.SetDefault("origin.backend", "http")
	v.SetDefault("origin.user_agent", "KamiKotoRenderGateway/1.0 (+shell-fetch)")
	v.SetDefault("origin.timeout", "4s")
	v.SetDefault("origin.max_body_bytes", 2<<20)
	v.SetDefault("origin.gcs.bucket", "")
	v.SetDefault("origin.gcs.object", "index.html")
	v.SetDefault("docstore.backend", "firestore")
	v.SetDefault("docstore.project_id", "")
	v.SetDefault("docstore.api_key", "")
	v.SetDefault("docstore.base_url", "")
	v.SetDefault("docstore.collection", "products")
	v.SetDefault("docstore.timeout", "3s")
	v.SetDefault("docstore.postgres.dsn", "")
	v.SetDefault("docstore.postgres.table", "products")
	v.SetDefault("routes.product_prefix", "/product/")
	v.SetDefault("storefront.name", "KamiKoto - Premium Stationery")
	v.SetDefault("storefront.base_url", "")
	v.SetDefault("storefront.currency", "INR")
	v.SetDefault("storefront.currency_symbol", "₹")
	v.SetDefault("storefront.locale", "en_IN")
	v.SetDefault("storefront.theme_color", "#1f2937")
	v.SetDefault("storefront.twitter_site", "")
	v.SetDefault("render.strip_markers", []string{"data-react-helmet", "data-rh"})
	v.SetDefault("render.root_selector", "#root")
	v.SetDefault("render.loading_selectors", []string{"#loading-screen", ".loading-screen", "#preloader"})
	v.SetDefault("gateway.force_visible_all_routes", false)
	v.SetDefault("events.backend", "none")
	v.SetDefault("events.project_id", "")
	v.SetDefault("events.topic", "")
	v.SetDefault("events.timeout", "2s")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.project_id", "")
	v.SetDefault("tracing.service_name", "render-gateway")
}

// Validate enforces required values and reasonable limits. Missing document
// store credentials are deliberately not an error: the gateway then runs in
// passthrough-only mode.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if !strings.HasPrefix(c.Server.AdminPrefix, "/") || c.Server.AdminPrefix == "/" {
		return fmt.Errorf("server.admin_prefix must start with / and not be the root")
	}
	if c.Origin.URL == "" {
		return fmt.Errorf("origin.url must be set")
	}
	if u, err := url.Parse(c.Origin.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("origin.url must be an absolute URL")
	}
	switch c.Origin.Backend {
	case "http":
	case "gcs":
		if c.Origin.GCS.Bucket == "" {
			return fmt.Errorf("origin.gcs.bucket must be set when origin.backend is gcs")
		}
	default:
		return fmt.Errorf("origin.backend must be http or gcs")
	}
	if c.Origin.Timeout <= 0 {
		return fmt.Errorf("origin.timeout must be > 0")
	}
	if c.Origin.MaxBodyBytes <= 0 {
		return fmt.Errorf("origin.max_body_bytes must be > 0")
	}
	switch c.DocStore.Backend {
	case "firestore", "postgres":
	default:
		return fmt.Errorf("docstore.backend must be firestore or postgres")
	}
	if c.DocStore.Timeout <= 0 {
		return fmt.Errorf("docstore.timeout must be > 0")
	}
	if !strings.HasPrefix(c.Routes.ProductPrefix, "/") || !strings.HasSuffix(c.Routes.ProductPrefix, "/") {
		return fmt.Errorf("routes.product_prefix must start and end with /")
	}
	if c.Storefront.Name == "" {
		return fmt.Errorf("storefront.name must be set")
	}
	switch c.Events.Backend {
	case "none", "memory":
	case "pubsub":
		if c.Events.ProjectID == "" || c.Events.Topic == "" {
			return fmt.Errorf("events.project_id and events.topic must be set when events.backend is pubsub")
		}
	default:
		return fmt.Errorf("events.backend must be none, memory or pubsub")
	}
	return nil
}

// ProductSourceConfigured reports whether escalation has what it needs to
// reach the document store.
func (c Config) ProductSourceConfigured() bool {
	switch c.DocStore.Backend {
	case "postgres":
		return c.DocStore.Postgres.DSN != ""
	default:
		return c.DocStore.ProjectID != "" && c.DocStore.APIKey != ""
	}
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
