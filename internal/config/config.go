// Package config loads service configuration from the environment. Gateway
// credentials live here and nowhere else; they are never echoed in logs or
// API responses.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const sandboxBaseURL = "https://vtb.rbsuat.com/payment/rest/"

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string

	SBPBaseURL  string
	SBPUserName string
	SBPPassword string
	SBPLanguage string
	SBPTimeout  time.Duration

	CurrencyCode int
	ReturnURL    string

	PollInterval time.Duration
	PollTimeout  time.Duration

	OrderWebhookURL string
	RestaurantID    string

	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getString("SERVICE_NAME", "orderpay"),
		Env:         getString("ENV", "dev"),
		HTTPAddr:    getString("HTTP_ADDR", ":8080"),

		SBPBaseURL:  getString("SBP_BASE_URL", sandboxBaseURL),
		SBPUserName: os.Getenv("SBP_USERNAME"),
		SBPPassword: os.Getenv("SBP_PASSWORD"),
		SBPLanguage: getString("SBP_LANGUAGE", "ru"),
		SBPTimeout:  getDuration("SBP_TIMEOUT", 15*time.Second),

		CurrencyCode: getInt("CURRENCY_CODE", 643),
		ReturnURL:    getString("RETURN_URL", ""),

		PollInterval: getDuration("POLL_INTERVAL", 5*time.Second),
		PollTimeout:  getDuration("POLL_TIMEOUT", 30*time.Minute),

		OrderWebhookURL: os.Getenv("ORDER_WEBHOOK_URL"),
		RestaurantID:    os.Getenv("RESTAURANT_ID"),

		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SBPUserName == "" {
		return fmt.Errorf("config: SBP_USERNAME is required")
	}
	if c.SBPPassword == "" {
		return fmt.Errorf("config: SBP_PASSWORD is required")
	}
	if c.ReturnURL == "" {
		return fmt.Errorf("config: RETURN_URL is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("config: POLL_INTERVAL must be positive")
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("config: POLL_TIMEOUT must be positive")
	}
	return nil
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
