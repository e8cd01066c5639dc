package sessionkit

import (
	"errors"
	"net/url"
	"time"
)

// Config defines the repository's tunables. Configure once at startup
// and treat as immutable afterwards.
type Config struct {
	API          APIConfig
	Tokens       TokenConfig
	Verification VerificationConfig
	Store        StoreConfig
	SMTP         SMTPConfig
	Metrics      MetricsConfig
}

// APIConfig locates the auth backend.
type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	UserAgent      string
}

// TokenConfig sets the token lifetimes. AccessTTL is the fallback
// session lifetime when the backend's access token carries no exp
// claim; RefreshTTL bounds how long the credential store retains an
// untouched record.
type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// VerificationConfig controls locally issued verification codes.
type VerificationConfig struct {
	CodeTTL    time.Duration
	CodeDigits int
}

// StoreBackend selects the credential/verification store
// implementation at startup.
type StoreBackend string

const (
	// StoreRedis backs the stores with a Redis client.
	StoreRedis StoreBackend = "redis"
	// StoreMemory backs the stores with in-process maps.
	StoreMemory StoreBackend = "memory"
)

// StoreConfig selects and namespaces the store backend.
type StoreConfig struct {
	Backend     StoreBackend
	RedisPrefix string
}

// SMTPConfig configures the password-reset mailer. Leave Host empty to
// run without outbound email.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the baseline configuration. API.BaseURL has no
// sensible default and must be set.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			RequestTimeout: 15 * time.Second,
			UserAgent:      "sessionkit/1",
		},
		Tokens: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Verification: VerificationConfig{
			CodeTTL:    15 * time.Minute,
			CodeDigits: 6,
		},
		Store: StoreConfig{
			Backend:     StoreRedis,
			RedisPrefix: "vt",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("API BaseURL must be an absolute URL")
	}
	if c.API.RequestTimeout <= 0 {
		return errors.New("API RequestTimeout must be > 0")
	}

	if c.Tokens.AccessTTL <= 0 {
		return errors.New("Tokens AccessTTL must be > 0")
	}
	if c.Tokens.RefreshTTL <= 0 {
		return errors.New("Tokens RefreshTTL must be > 0")
	}
	if c.Tokens.RefreshTTL < c.Tokens.AccessTTL {
		return errors.New("Tokens RefreshTTL must be >= AccessTTL")
	}

	if c.Verification.CodeTTL <= 0 {
		return errors.New("Verification CodeTTL must be > 0")
	}
	if c.Verification.CodeDigits < 6 || c.Verification.CodeDigits > 10 {
		return errors.New("Verification CodeDigits must be between 6 and 10")
	}

	switch c.Store.Backend {
	case StoreRedis:
		if c.Store.RedisPrefix == "" {
			return errors.New("Store RedisPrefix is required for the redis backend")
		}
	case StoreMemory:
		// valid
	default:
		return errors.New("Store Backend must be 'redis' or 'memory'")
	}

	if c.SMTP.Host != "" {
		if c.SMTP.Port <= 0 {
			return errors.New("SMTP Port must be > 0 when SMTP Host is set")
		}
		if c.SMTP.From == "" {
			return errors.New("SMTP From is required when SMTP Host is set")
		}
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	// All fields are value types today; the clone exists so later
	// reference-typed fields keep the builder's copy semantics.
	return cfg
}
