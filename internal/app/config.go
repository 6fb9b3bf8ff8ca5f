package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	APIBaseURL string        `envconfig:"API_BASE_URL" default:"https://api.compass.local/v1"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"10s"`

	OAuthClientID     string   `envconfig:"OAUTH_CLIENT_ID" required:"true"`
	OAuthClientSecret string   `envconfig:"OAUTH_CLIENT_SECRET" required:"true"`
	OAuthAuthURL      string   `envconfig:"OAUTH_AUTH_URL" required:"true"`
	OAuthTokenURL     string   `envconfig:"OAUTH_TOKEN_URL" required:"true"`
	OAuthRedirectURL  string   `envconfig:"OAUTH_REDIRECT_URL" required:"true"`
	OAuthScopes       []string `envconfig:"OAUTH_SCOPES" default:"profile,email"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	CacheTTL           time.Duration `envconfig:"CACHE_TTL" default:"1m"`
	CacheRetryAttempts int           `envconfig:"CACHE_RETRY_ATTEMPTS" default:"3"`
	CacheRetryDelay    time.Duration `envconfig:"CACHE_RETRY_DELAY" default:"500ms"`

	// WarmupToken authenticates the cache warmup job against the backend.
	WarmupToken string `envconfig:"WARMUP_TOKEN"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
