package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/psantana5/up42-go/pkg/metrics"
	clienttls "github.com/psantana5/up42-go/pkg/tls"
)

// ErrInvalidConfig is returned for configurations that fail validation
var ErrInvalidConfig = errors.New("invalid auth config")

// DefaultEnv is the production environment
const DefaultEnv = "com"

var envPattern = regexp.MustCompile(`^[a-z0-9]+$`)

// Config holds the credentials and client settings
type Config struct {
	ProjectID     string `mapstructure:"project_id"`
	ProjectAPIKey string `mapstructure:"project_api_key"`
	Env           string `mapstructure:"env"`

	// Endpoint replaces https://api.up42.{env} when set
	Endpoint string `mapstructure:"endpoint"`

	// AccessToken is sent as is instead of running the token exchange
	AccessToken string `mapstructure:"access_token"`

	// Authenticate disables authorization entirely when false
	Authenticate bool `mapstructure:"authenticate"`

	// GetInfo makes entities fetch their info when they are constructed
	GetInfo bool `mapstructure:"get_info"`

	Timeout   time.Duration     `mapstructure:"timeout"`
	RateLimit float64           `mapstructure:"rate_limit"` // requests per second, 0 disables pacing
	RateBurst int               `mapstructure:"rate_burst"`
	TLS       clienttls.Options `mapstructure:"tls"`

	Logger    hclog.Logger           `mapstructure:"-"`
	Tracer    trace.Tracer           `mapstructure:"-"`
	Metrics   *metrics.ClientMetrics `mapstructure:"-"`
	Transport http.RoundTripper      `mapstructure:"-"` // base transport, overrides TLS
}

// DefaultConfig returns a config for the production environment
func DefaultConfig() Config {
	return Config{
		Env:          DefaultEnv,
		Authenticate: true,
		GetInfo:      true,
		RateBurst:    1,
	}
}

// Validate checks the config
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.ProjectID, validation.Required),
		validation.Field(&c.ProjectAPIKey,
			validation.When(c.Authenticate && c.AccessToken == "", validation.Required)),
		validation.Field(&c.Env,
			validation.When(c.Endpoint == "", validation.Required),
			validation.Match(envPattern)),
		validation.Field(&c.Endpoint, validation.By(validateEndpoint)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func validateEndpoint(value interface{}) error {
	endpoint, _ := value.(string)
	if endpoint == "" {
		return nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must be an http or https URL")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

// LoadConfig reads a YAML or JSON config file (skipped when path is empty)
// and applies UP42_PROJECT_ID, UP42_PROJECT_API_KEY, UP42_ENV and
// UP42_ENDPOINT from the environment on top of it.
func LoadConfig(path string) (Config, error) {
	return loadConfig(viper.New(), path)
}

func loadConfig(v *viper.Viper, path string) (Config, error) {
	cfg := DefaultConfig()

	v.SetDefault("env", cfg.Env)
	v.SetDefault("authenticate", cfg.Authenticate)
	v.SetDefault("get_info", cfg.GetInfo)
	v.SetDefault("rate_burst", cfg.RateBurst)

	v.SetEnvPrefix("UP42")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{"project_id", "project_api_key", "env", "endpoint", "access_token"} {
		if err := v.BindEnv(key); err != nil {
			return cfg, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
