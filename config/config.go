// Package config loads client settings from the environment or a configuration file
// and turns them into an httpclient.Builder.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/AmmannChristian/go-bearer/httpclient"
	"github.com/AmmannChristian/go-bearer/oauth2client"
)

// Config holds the settings needed to build an authenticated client.
type Config struct {
	// Application
	ClientID     string `env:"BEARER_CLIENT_ID" env-required:"true" yaml:"client_id" toml:"client_id"`
	ClientSecret string `env:"BEARER_CLIENT_SECRET" yaml:"client_secret" toml:"client_secret"`
	UserAgent    string `env:"BEARER_USER_AGENT" yaml:"user_agent" toml:"user_agent"`
	BaseURL      string `env:"BEARER_BASE_URL" env-default:"https://www.reddit.com" yaml:"base_url" toml:"base_url"`

	// Authentication flow
	Username     string `env:"BEARER_USERNAME" yaml:"username" toml:"username"`
	Password     string `env:"BEARER_PASSWORD" yaml:"password" toml:"password"`
	RefreshToken string `env:"BEARER_REFRESH_TOKEN" yaml:"refresh_token" toml:"refresh_token"`
	Code         string `env:"BEARER_CODE" yaml:"code" toml:"code"`
	RedirectURI  string `env:"BEARER_REDIRECT_URI" yaml:"redirect_uri" toml:"redirect_uri"`
	Scope        string `env:"BEARER_SCOPE" env-default:"identity" yaml:"scope" toml:"scope"`

	// Transport
	Timeout time.Duration `env:"BEARER_TIMEOUT" env-default:"30s" yaml:"timeout" toml:"timeout"`
}

// ErrInvalidConfig wraps every validation failure reported by Load and LoadFile.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads a YAML, TOML, JSON or .env file. Environment variables override file values.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Usage returns a description of every supported environment variable.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}

func (c *Config) validate() error {
	if _, err := oauth2client.ParseScopeSet(c.Scope); err != nil {
		return fmt.Errorf("%w: BEARER_SCOPE: %w", ErrInvalidConfig, err)
	}
	if c.Code != "" && c.RedirectURI == "" && c.Username == "" {
		return fmt.Errorf("%w: BEARER_REDIRECT_URI is required with BEARER_CODE", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: BEARER_TIMEOUT must not be negative", ErrInvalidConfig)
	}
	return nil
}

// AppSecrets returns the registered application's credentials. An empty client
// secret yields a public client.
func (c *Config) AppSecrets() oauth2client.AppSecrets {
	if c.ClientSecret == "" {
		return oauth2client.NewPublicAppSecrets(c.ClientID)
	}
	return oauth2client.NewAppSecrets(c.ClientID, c.ClientSecret)
}

// Strategy selects the authentication flow. Password wins over an authorization
// code, which wins over a refresh token. It returns nil when none is configured.
func (c *Config) Strategy() (oauth2client.AuthStrategy, error) {
	scope, err := oauth2client.ParseScopeSet(c.Scope)
	if err != nil {
		return nil, fmt.Errorf("%w: BEARER_SCOPE: %w", ErrInvalidConfig, err)
	}

	switch {
	case c.Username != "":
		return oauth2client.PasswordStrategy{
			Username: c.Username,
			Password: c.Password,
			Scope:    scope,
		}, nil
	case c.Code != "":
		return oauth2client.CodeStrategy{
			Code:        c.Code,
			RedirectURI: c.RedirectURI,
			Scope:       scope,
		}, nil
	case c.RefreshToken != "":
		return oauth2client.RefreshTokenStrategy{RefreshToken: c.RefreshToken}, nil
	default:
		return nil, nil
	}
}

// Builder returns an httpclient.Builder prepared with these settings.
func (c *Config) Builder() (*httpclient.Builder, error) {
	strategy, err := c.Strategy()
	if err != nil {
		return nil, err
	}

	builder := httpclient.NewBuilder().
		WithAppSecrets(c.AppSecrets()).
		WithBaseURL(c.BaseURL)

	if c.UserAgent != "" {
		builder = builder.WithUserAgent(c.UserAgent)
	}
	if strategy != nil {
		builder = builder.WithStrategy(strategy)
	}
	if c.Timeout > 0 {
		builder = builder.WithTimeout(c.Timeout)
	}
	return builder, nil
}
