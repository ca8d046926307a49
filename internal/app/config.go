package app

import (
	"net/url"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (SHOWCASE_ prefix), flags, or YAML config files.
type Config struct {
	Addr       string `default:"0.0.0.0:8080" usage:"HTTP server listen address"`
	TrustProxy bool   `default:"false" usage:"Resolve client IP from X-Forwarded-For and X-Real-IP; enable only behind a proxy that overwrites them" flag:"trust-proxy"`
	Upstream   UpstreamConfig
	Catalog    CatalogConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Health     HealthConfig
	Graceful   GracefulConfig
}

// UpstreamConfig points the server at the catalog API.
type UpstreamConfig struct {
	BaseURL   string        `default:"https://dummyjson.com" usage:"Catalog API base URL" flag:"upstream-url"`
	Timeout   time.Duration `default:"0s" usage:"Per-request upstream timeout, 0 disables it"`
	UserAgent string        `default:"product-showcase" usage:"User-Agent sent upstream"`
}

// CatalogConfig controls the product views.
type CatalogConfig struct {
	DefaultProductID int           `default:"1" usage:"Product shown on the index page"`
	DefaultLimit     int           `default:"10" usage:"Collection size without a limit query"`
	MaxLimit         int           `default:"100" usage:"Largest accepted limit query"`
	SkeletonDelay    time.Duration `default:"150ms" usage:"Wait before streaming the loading skeleton" flag:"skeleton-delay"`
	APITimeout       time.Duration `default:"30s" usage:"How long JSON endpoints wait for the upstream" flag:"api-timeout"`
	PlaceholderPath  string        `default:"/placeholder.svg" usage:"Fallback image for broken product images"`
}

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	Rate    float64       `default:"10" usage:"Sustained requests per second per client, 0 disables limiting"`
	Burst   int           `default:"20" usage:"Token bucket size"`
	IdleTTL time.Duration `default:"3m" usage:"Idle time before a client bucket is dropped"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// HealthConfig controls background probes.
type HealthConfig struct {
	UpstreamCheck bool          `default:"true" usage:"Gate readiness on upstream reachability"`
	Interval      time.Duration `default:"10s" usage:"Probe interval"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "SHOWCASE",
		Files:     []string{"config.yaml", "/etc/showcase/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(acfg aconfig.Config) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, acfg)
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the PORT variable set by hosting platforms
// (Railway, Render, etc.) onto Addr when Addr was left at its default.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("upstream base url %q must be absolute", c.Upstream.BaseURL)
	}
	if c.Upstream.Timeout < 0 {
		return errors.New("upstream timeout must not be negative")
	}
	cat := c.Catalog
	switch {
	case cat.DefaultProductID < 1:
		return errors.Errorf("default product id %d must be positive", cat.DefaultProductID)
	case cat.MaxLimit < 1:
		return errors.Errorf("max limit %d must be positive", cat.MaxLimit)
	case cat.DefaultLimit < 1 || cat.DefaultLimit > cat.MaxLimit:
		return errors.Errorf("default limit %d must be between 1 and %d", cat.DefaultLimit, cat.MaxLimit)
	case cat.SkeletonDelay < 0:
		return errors.New("skeleton delay must not be negative")
	}
	if c.RateLimit.Rate > 0 && c.RateLimit.Burst < 1 {
		return errors.Errorf("rate limit burst %d must be positive", c.RateLimit.Burst)
	}
	if c.Health.Interval <= 0 {
		return errors.New("health interval must be positive")
	}
	return nil
}
