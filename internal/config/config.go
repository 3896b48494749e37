package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	APIConfig `mapstructure:",squash"`

	// Session store. An empty RedisAddr keeps sessions in memory.
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	RedisPassword     string `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int    `mapstructure:"REDIS_DB"`
	SessionTTLMinutes int    `mapstructure:"SESSION_TTL_MINUTES"`

	JWTSecret        string `mapstructure:"JWT_SECRET"`
	OperatorUsername string `mapstructure:"OPERATOR_USERNAME"`
	OperatorPassword string `mapstructure:"OPERATOR_PASSWORD"`

	MaxRequestsPerMin  int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	TrustProxyHeaders  bool   `mapstructure:"TRUST_PROXY_HEADERS"`
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

var keys = []string{
	"APP_PORT", "ENV", "LOG_LEVEL",
	"QUESTIONNAIRE_API_URL", "QUESTIONNAIRE_API_TIMEOUT_MS", "QUESTIONNAIRE_API_MAX_RETRIES",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "SESSION_TTL_MINUTES",
	"JWT_SECRET", "OPERATOR_USERNAME", "OPERATOR_PASSWORD",
	"MAX_REQUESTS_PER_MIN", "TRUST_PROXY_HEADERS", "CORS_ALLOWED_ORIGINS",
}

// Load reads config.yaml (current dir or ./config) and the environment.
// Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	// AutomaticEnv only sees keys viper already knows about
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.RedisAddr = strings.TrimPrefix(cfg.RedisAddr, "redis://")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	api := DefaultAPIConfig()
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("QUESTIONNAIRE_API_URL", api.BaseURL)
	v.SetDefault("QUESTIONNAIRE_API_TIMEOUT_MS", api.TimeoutMS)
	v.SetDefault("QUESTIONNAIRE_API_MAX_RETRIES", api.MaxRetries)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL_MINUTES", 120)
	v.SetDefault("JWT_SECRET", "super-secret-key-change-in-production")
	v.SetDefault("OPERATOR_USERNAME", "admin")
	v.SetDefault("OPERATOR_PASSWORD", "password123")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 120)
	v.SetDefault("TRUST_PROXY_HEADERS", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SessionTTL returns how long an idle quiz session is kept
func (c *Config) SessionTTL() time.Duration {
	if c.SessionTTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// UsesRedis reports whether sessions go to redis instead of memory
func (c *Config) UsesRedis() bool {
	return c.RedisAddr != ""
}
