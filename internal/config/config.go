package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application. It is constructed
// once in main and passed by reference; request handlers never read ambient
// global state.
type Config struct {
	Port      string `mapstructure:"PORT"`
	GinMode   string `mapstructure:"GIN_MODE"`
	ClientURL string `mapstructure:"CLIENT_URL"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	PayPalAPIBase      string `mapstructure:"PAYPAL_API_BASE"`
	PayPalClientID     string `mapstructure:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `mapstructure:"PAYPAL_CLIENT_SECRET"`
	PayPalWebhookID    string `mapstructure:"PAYPAL_WEBHOOK_ID"`

	PayPalPlanIDMonthly string `mapstructure:"PAYPAL_PLAN_ID_MONTHLY"`
	PayPalPlanIDYearly  string `mapstructure:"PAYPAL_PLAN_ID_YEARLY"`

	AdminAPISecret string `mapstructure:"ADMIN_API_SECRET"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	AMQPURL string `mapstructure:"AMQP_URL"`
}

// LoadConfig loads configuration from environment variables using Viper.
// Only the Firestore settings are hard requirements: the store is
// load-bearing for every operation. Billing and admin credentials may be
// absent; the dependent operations then fail at call time, and
// MissingCredentialWarnings reports what to log at startup.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "release")
	viper.SetDefault("PAYPAL_API_BASE", "https://api-m.paypal.com")

	keys := []string{
		"PORT", "GIN_MODE", "CLIENT_URL",
		"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
		"PAYPAL_API_BASE", "PAYPAL_CLIENT_ID", "PAYPAL_CLIENT_SECRET", "PAYPAL_WEBHOOK_ID",
		"PAYPAL_PLAN_ID_MONTHLY", "PAYPAL_PLAN_ID_YEARLY",
		"ADMIN_API_SECRET",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"AMQP_URL",
	}
	for _, key := range keys {
		if err := viper.BindEnv(key); err != nil {
			return nil, errors.New("failed to bind env key " + key + ": " + err.Error())
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if cfg.FirebaseProjectID == "" && cfg.GoogleApplicationCredentials == "" && cfg.FirebaseServiceAccountJSONBase64 == "" {
		return nil, errors.New("one of FIREBASE_PROJECT_ID, GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is required")
	}

	return &cfg, nil
}

// MissingCredentialWarnings lists degraded-operation warnings to emit once
// at startup. Absence of a credential is not fatal; the dependent operation
// fails at call time instead.
func (c *Config) MissingCredentialWarnings() []string {
	var warnings []string
	if c.PayPalClientID == "" || c.PayPalClientSecret == "" {
		warnings = append(warnings, "PAYPAL_CLIENT_ID/PAYPAL_CLIENT_SECRET not set: subscription validation and webhook processing will fail")
	}
	if c.PayPalWebhookID == "" {
		warnings = append(warnings, "PAYPAL_WEBHOOK_ID not set: webhook signature verification will reject all deliveries")
	}
	if c.AdminAPISecret == "" {
		warnings = append(warnings, "ADMIN_API_SECRET not set: manual activation endpoint will refuse all requests")
	}
	return warnings
}
