package config

import (
	"strings"
	"time"
)

const DefaultAPIBaseURL = "http://127.0.0.1:8000/api/v1"

// APIConfig holds the Questionnaire API settings
type APIConfig struct {
	BaseURL    string `mapstructure:"QUESTIONNAIRE_API_URL"`
	TimeoutMS  int    `mapstructure:"QUESTIONNAIRE_API_TIMEOUT_MS"`
	MaxRetries int    `mapstructure:"QUESTIONNAIRE_API_MAX_RETRIES"`
}

// DefaultAPIConfig returns the settings used when nothing is configured
func DefaultAPIConfig() APIConfig {
	return APIConfig{
		BaseURL:    DefaultAPIBaseURL,
		TimeoutMS:  30000,
		MaxRetries: 3,
	}
}

// Endpoint returns the full URL for an API path such as "/participants/"
func (c APIConfig) Endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Timeout returns the per-request timeout; zero means none
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Attempts returns how many times a request may be sent
func (c APIConfig) Attempts() int {
	if c.MaxRetries < 0 {
		return 1
	}
	return c.MaxRetries + 1
}
