package goRedeem

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the Engine needs. Build it with LoadConfig, or
// start from DefaultConfig and fill the required URLs and merchant ids.
type Config struct {
	Environment     string `env:"REDEEM_ENV" envDefault:"development" validate:"required"`
	EnvironmentFile string `env:"REDEEM_ENVIRONMENTS_FILE"`

	Identity    IdentityConfig
	API         APIConfig
	Merchant    MerchantConfig
	Credentials CredentialsConfig
	Security    SecurityConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

/*
====================================
ENDPOINT CONFIG
====================================
*/

// IdentityConfig points at the password sign-in endpoint and describes how
// its ID tokens are inspected.
type IdentityConfig struct {
	AuthURL       string        `env:"REDEEM_AUTH_URL" validate:"required,url"`
	TokenIssuer   string        `env:"REDEEM_TOKEN_ISSUER"`
	TokenAudience string        `env:"REDEEM_TOKEN_AUDIENCE"`
	TokenLeeway   time.Duration `env:"REDEEM_TOKEN_LEEWAY" envDefault:"30s" validate:"gte=0,lte=2m"`

	// TokenVerifyMethod is "", "hs256" or "ed25519". Empty reads claims
	// without checking the signature.
	TokenVerifyMethod string `env:"REDEEM_TOKEN_VERIFY_METHOD" validate:"omitempty,oneof=hs256 ed25519"`
	TokenVerifyKey    string `env:"REDEEM_TOKEN_VERIFY_KEY"`
}

// APIConfig points at the gift card ledger.
type APIConfig struct {
	BaseURL string `env:"REDEEM_API_BASE_URL" validate:"required,url"`
}

/*
====================================
MERCHANT CONFIG
====================================
*/

// MerchantConfig identifies the point of sale submitting redemptions.
type MerchantConfig struct {
	MerchantID   string `env:"REDEEM_MERCHANT_ID" validate:"required"`
	LocationID   string `env:"REDEEM_LOCATION_ID" validate:"required"`
	PosID        string `env:"REDEEM_POS_ID" validate:"required"`
	BusinessName string `env:"REDEEM_BUSINESS_NAME"`
	LocationName string `env:"REDEEM_LOCATION_NAME"`
}

/*
====================================
STORAGE & SECURITY CONFIG
====================================
*/

// CredentialsConfig controls where the session is persisted.
type CredentialsConfig struct {
	RedisAddr     string `env:"REDEEM_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDEEM_REDIS_PASSWORD"`
	RedisDB       int    `env:"REDEEM_REDIS_DB" envDefault:"0" validate:"gte=0"`
	RedisPrefix   string `env:"REDEEM_REDIS_PREFIX" envDefault:"redeem" validate:"required"`
}

// SecurityConfig controls the sign-in throttle. MaxLoginAttempts <= 0
// disables it.
type SecurityConfig struct {
	MaxLoginAttempts      int           `env:"REDEEM_MAX_LOGIN_ATTEMPTS" envDefault:"5" validate:"gte=0"`
	LoginCooldownDuration time.Duration `env:"REDEEM_LOGIN_COOLDOWN" envDefault:"15m" validate:"gte=0"`
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"REDEEM_AUDIT_ENABLED" envDefault:"true"`
	BufferSize int  `env:"REDEEM_AUDIT_BUFFER" envDefault:"256" validate:"gte=0"`
	DropIfFull bool `env:"REDEEM_AUDIT_DROP_IF_FULL" envDefault:"true"`
}

// MetricsConfig toggles in-process counters and the redemption latency histogram.
type MetricsConfig struct {
	Enabled                 bool `env:"REDEEM_METRICS_ENABLED" envDefault:"true"`
	EnableLatencyHistograms bool `env:"REDEEM_METRICS_LATENCY" envDefault:"true"`
}

// Environment is one named deployment target.
type Environment struct {
	AuthURL    string `yaml:"authUrl" validate:"required,url"`
	APIBaseURL string `yaml:"apiBaseUrl" validate:"required,url"`
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// DefaultConfig returns the defaults LoadConfig starts from. Endpoint URLs and
// merchant ids are left empty.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Environment: "development",
		Identity: IdentityConfig{
			TokenLeeway: 30 * time.Second,
		},
		Credentials: CredentialsConfig{
			RedisAddr:   "localhost:6379",
			RedisPrefix: "redeem",
		},
		Security: SecurityConfig{
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Config holds only value fields, so a struct copy is a deep copy.
func cloneConfig(cfg Config) Config {
	return cfg
}

// LoadConfig reads Config from the process environment. When
// REDEEM_ENVIRONMENTS_FILE names a YAML file, the entry selected by REDEEM_ENV
// supplies any endpoint URL not set explicitly.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("load redeem config: %w", err)
	}

	if cfg.EnvironmentFile != "" {
		envs, err := LoadEnvironments(cfg.EnvironmentFile)
		if err != nil {
			return Config{}, err
		}
		if err := cfg.ApplyEnvironment(envs); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnvironments reads a YAML document mapping environment names
// (development, qa, uat, production) to endpoint URLs.
func LoadEnvironments(path string) (map[string]Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read environments file: %w", err)
	}
	return ParseEnvironments(data)
}

// ParseEnvironments decodes the environments YAML document.
func ParseEnvironments(data []byte) (map[string]Environment, error) {
	var doc struct {
		Environments map[string]Environment `yaml:"environments"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse environments file: %w", err)
	}
	if len(doc.Environments) == 0 {
		return nil, errors.New("environments file defines no environments")
	}
	for name, e := range doc.Environments {
		if err := configValidator.Struct(e); err != nil {
			return nil, fmt.Errorf("environment %q: %w", name, err)
		}
	}
	return doc.Environments, nil
}

// ApplyEnvironment fills empty endpoint URLs from the entry named by
// c.Environment. An unknown name is an error.
func (c *Config) ApplyEnvironment(envs map[string]Environment) error {
	name := strings.ToLower(strings.TrimSpace(c.Environment))
	e, ok := envs[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEnvironment, c.Environment)
	}
	if c.Identity.AuthURL == "" {
		c.Identity.AuthURL = e.AuthURL
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = e.APIBaseURL
	}
	return nil
}

// Validate checks required fields and ranges.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Security.MaxLoginAttempts > 0 && c.Security.LoginCooldownDuration <= 0 {
		return fmt.Errorf("%w: login throttle requires a positive cooldown", ErrInvalidConfig)
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: audit buffer size must be > 0", ErrInvalidConfig)
	}
	return nil
}
