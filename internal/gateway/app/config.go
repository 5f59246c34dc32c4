package app

import (
	"fmt"
	"os"
	"time"

	"github.com/aussiebroadwan/courtside/internal/gateway/registry"
	"github.com/aussiebroadwan/courtside/pkg/httpx"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix scopes every gateway variable, including backend overrides
// (GATEWAY_BACKEND_<NAME>_URL).
const EnvPrefix = "GATEWAY"

// Config is read from GATEWAY_* variables. Fields tagged with an envconfig
// name also fall back to the unprefixed variable.
type Config struct {
	Env       string `envconfig:"ENV" default:"dev"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	Port      int    `envconfig:"PORT" default:"8080"`

	// BackendsFile replaces the default backend table with a YAML document.
	BackendsFile string        `envconfig:"BACKENDS_FILE"`
	MaxBodyBytes int64         `envconfig:"MAX_BODY_BYTES" default:"10485760"`
	ProbeTimeout time.Duration `envconfig:"PROBE_TIMEOUT" default:"5s"`

	ShutdownGracePeriod time.Duration `envconfig:"SHUTDOWN_GRACE_PERIOD" default:"10s"`

	// TrustedProxies lists CIDRs or addresses whose X-Forwarded-For and
	// X-Real-IP are believed when keying the rate limiter. Empty means the
	// peer address is always used.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	// Backends is resolved by LoadConfig, not read directly.
	Backends []registry.Backend `ignored:"true"`
}

// LoadConfig reads configuration from the environment and resolves the
// backend table: file or defaults, then per-backend env overrides.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, err
	}

	backends := registry.Defaults()
	if cfg.BackendsFile != "" {
		var err error
		if backends, err = registry.LoadFile(cfg.BackendsFile); err != nil {
			return Config{}, err
		}
	}
	backends, err := registry.ApplyEnv(backends, EnvPrefix, os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	cfg.Backends = backends

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %s", c.ProbeTimeout)
	}
	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		return err
	}
	return nil
}

// IsProduction reports whether HSTS and other production-only headers apply.
func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}
