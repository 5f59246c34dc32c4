package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is read from ROLES_* variables. Fields tagged with an envconfig
// name also fall back to the unprefixed variable (LOG_LEVEL, PORT, ...).
type Config struct {
	Env       string `envconfig:"ENV" default:"dev"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	Port      int    `envconfig:"PORT" default:"8001"`

	DatabaseFile string `envconfig:"DATABASE_FILE" default:"roles.db"`

	// Seed creates default roles and permissions at startup.
	Seed bool `envconfig:"SEED" default:"true"`
	// BootstrapAdminUser is given the admin role by the seed.
	BootstrapAdminUser string `envconfig:"BOOTSTRAP_ADMIN_USER"`

	// Verifier is "remote" (ask the identity service per request) or "jwt"
	// (verify tokens locally against the identity service's JWKS).
	Verifier          string        `envconfig:"VERIFIER" default:"remote"`
	AuthURL           string        `envconfig:"AUTH_URL" default:"http://localhost:8000"`
	AuthTimeout       time.Duration `envconfig:"AUTH_TIMEOUT" default:"5s"`
	JWTIssuer         string        `envconfig:"JWT_ISSUER"`
	JWTAudience       []string      `envconfig:"JWT_AUDIENCE"`
	VerifierCacheTTL  time.Duration `envconfig:"VERIFIER_CACHE_TTL" default:"0s"`
	VerifierCacheSize int           `envconfig:"VERIFIER_CACHE_SIZE" default:"1024"`

	// FailOpen lets requests through when the store is unreachable.
	FailOpen bool `envconfig:"FAIL_OPEN" default:"false"`

	ShutdownGracePeriod time.Duration `envconfig:"SHUTDOWN_GRACE_PERIOD" default:"10s"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("ROLES", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(c.Verifier) {
	case "remote", "jwt":
	default:
		return fmt.Errorf("unknown verifier %q (want remote or jwt)", c.Verifier)
	}
	if c.AuthURL == "" {
		return errors.New("auth url must be provided")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// IsProduction reports whether HSTS and other production-only headers apply.
func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}
