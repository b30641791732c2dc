package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/cashier/internal/domain/pricing"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (CASHIER_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (CASHIER_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Till        TillConfig
	Health      HealthConfig
	Graceful    GracefulConfig
}

// TillConfig controls pricing and presentation at every till.
type TillConfig struct {
	Currency        string `default:"£" usage:"Currency symbol printed in messages and summaries"`
	DiscountPercent string `default:"10" usage:"Discount rate applied to every basket, in percent" flag:"discount-percent"`
}

// HealthConfig controls background health probing.
type HealthConfig struct {
	Interval        time.Duration `default:"10s"   usage:"Health probe interval"`
	MaxGoroutines   int           `default:"10000" usage:"Liveness fails above this goroutine count" flag:"max-goroutines"`
	DatabaseTimeout time.Duration `default:"5s"    usage:"Timeout of the database readiness probe" flag:"database-timeout"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// Policy parses the configured discount rate.
func (c TillConfig) Policy() (pricing.Policy, error) {
	percent, err := decimal.NewFromString(c.DiscountPercent)
	if err != nil {
		return pricing.Policy{}, errors.Wrapf(err, "parse discount percent %q", c.DiscountPercent)
	}
	return pricing.NewPolicy(percent)
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CASHIER",
		Files:     []string{"config.yaml", "/etc/cashier/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks fields aconfig cannot.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set CASHIER_DATABASE_URL or DATABASE_URL")
	}
	if c.Till.Currency == "" {
		return errors.New("till currency must not be empty")
	}
	if _, err := c.Till.Policy(); err != nil {
		return errors.Wrap(err, "till discount")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's CASHIER_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
