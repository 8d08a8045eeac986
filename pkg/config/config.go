package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is applied by envconfig on top of the per-field tags.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App     AppConfig
	Backend BackendConfig
	Redis   RedisConfig
	POS     POSConfig
	Display DisplayConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TILLPOINT_APP_ENV" required:"true"`
	Port         string `envconfig:"TILLPOINT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TILLPOINT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TILLPOINT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points at the catalog/inventory/sales collaborator API.
type BackendConfig struct {
	BaseURL string        `envconfig:"TILLPOINT_BACKEND_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"TILLPOINT_BACKEND_API_KEY"`
	Timeout time.Duration `envconfig:"TILLPOINT_BACKEND_TIMEOUT" default:"10s"`
}

func (b BackendConfig) validate() error {
	if strings.TrimSpace(b.BaseURL) == "" {
		return fmt.Errorf("backend base url is required")
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"TILLPOINT_REDIS_URL"`
	Address      string        `envconfig:"TILLPOINT_REDIS_ADDR"`
	Password     string        `envconfig:"TILLPOINT_REDIS_PASSWORD"`
	DB           int           `envconfig:"TILLPOINT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TILLPOINT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TILLPOINT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TILLPOINT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TILLPOINT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TILLPOINT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// POSConfig carries register-level defaults applied to every session.
type POSConfig struct {
	PricesIncludeTax  bool   `envconfig:"TILLPOINT_POS_PRICES_INCLUDE_TAX" default:"false"`
	DefaultTaxRateID  string `envconfig:"TILLPOINT_POS_DEFAULT_TAX_RATE_ID"`
	Channel           string `envconfig:"TILLPOINT_POS_CHANNEL" default:"pos"`
	CashMethodMatches string `envconfig:"TILLPOINT_POS_CASH_METHOD_MATCHES" default:"cash,efectivo"`
}

// DefaultRateID parses the configured default tax rate id. Nil when
// unset or malformed.
func (p POSConfig) DefaultRateID() *uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(p.DefaultTaxRateID))
	if err != nil {
		return nil
	}
	return &id
}

// CashKeywords returns the lowercase keyword set used to classify cash tenders.
func (p POSConfig) CashKeywords() []string {
	parts := strings.Split(p.CashMethodMatches, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// DisplayConfig controls the customer display side-channel. The pub/sub
// channel itself is derived from the register id.
type DisplayConfig struct {
	Enabled     bool          `envconfig:"TILLPOINT_DISPLAY_ENABLED" default:"true"`
	RegisterID  string        `envconfig:"TILLPOINT_DISPLAY_REGISTER_ID" default:"register-1"`
	MinInterval time.Duration `envconfig:"TILLPOINT_DISPLAY_MIN_INTERVAL" default:"200ms"`
}
