package aci

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults applied by New to zero-valued Config fields.
const (
	DefaultBaseURL         = "https://api.aci.dev/v1/"
	DefaultMaxRetries      = 3
	DefaultRetryMinWait    = time.Second
	DefaultRetryMaxWait    = 10 * time.Second
	DefaultRetryMultiplier = 2.0
	DefaultTimeout         = 60 * time.Second

	// APIKeyEnv is read when Config.APIKey is empty.
	APIKeyEnv = "ACI_API_KEY"
)

// Config holds the client settings. It is read once by New and never changed afterwards.
type Config struct {
	APIKey  string `json:"api_key" validate:"required"`
	BaseURL string `json:"base_url" validate:"required,url"`

	// MaxRetries is the number of retries after the first attempt. Use
	// NoRetries to disable retrying; 0 means DefaultMaxRetries.
	MaxRetries      int           `json:"max_retries" validate:"gte=-1,lte=20"`
	RetryMinWait    time.Duration `json:"retry_min_wait" validate:"gte=0"`
	RetryMaxWait    time.Duration `json:"retry_max_wait" validate:"gtefield=RetryMinWait"`
	RetryMultiplier float64       `json:"retry_multiplier" validate:"gte=1"`

	// Timeout bounds a single HTTP attempt. Ignored when WithHTTPClient is used.
	Timeout time.Duration `json:"timeout" validate:"gte=0"`
}

// NoRetries disables the retry loop when set as Config.MaxRetries.
const NoRetries = -1

// withDefaults returns a copy of c with defaults and the environment applied.
func (c Config) withDefaults() Config {
	if c.APIKey == "" {
		c.APIKey = os.Getenv(APIKeyEnv)
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryMinWait == 0 {
		c.RetryMinWait = DefaultRetryMinWait
	}
	if c.RetryMaxWait == 0 {
		c.RetryMaxWait = DefaultRetryMaxWait
	}
	if c.RetryMultiplier == 0 {
		c.RetryMultiplier = DefaultRetryMultiplier
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Validate checks a defaulted configuration. A missing API key is reported
// as ErrMissingAPIKey, everything else wraps ErrInvalidConfig.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// retryPolicy extracts the transport retry settings.
func (c Config) retryPolicy() RetryPolicy {
	retries := c.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return RetryPolicy{
		MaxRetries: retries,
		MinWait:    c.RetryMinWait,
		MaxWait:    c.RetryMaxWait,
		Multiplier: c.RetryMultiplier,
	}
}

// String returns the configuration with the API key masked.
func (c Config) String() string {
	key := c.APIKey
	if key != "" {
		key = strings.Repeat("*", len(key))
	}
	return fmt.Sprintf("Config{BaseURL: %q, APIKey: %q, MaxRetries: %d, RetryMinWait: %s, RetryMaxWait: %s, RetryMultiplier: %g, Timeout: %s}",
		c.BaseURL, key, c.MaxRetries, c.RetryMinWait, c.RetryMaxWait, c.RetryMultiplier, c.Timeout)
}
