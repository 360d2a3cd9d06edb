package config

import (
	"os"
	"strings"
)

// parseEnv overlays values taken from the process environment. Unset or
// empty variables are ignored. PORT is accepted alone ("3000") or as an
// address (":3000").
func parseEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if !strings.Contains(port, ":") {
			port = ":" + port
		}
		config.EndpointAddrHTTP = port
	}

	envString(&config.DatabaseDSN, "DATABASE_URL")
	envString(&config.SecretKey, "JWT_SECRET")
	envString(&config.Environment, "APP_ENV")
	envString(&config.DomainURL, "DOMAIN_URL")
	envString(&config.StripeSecretKey, "STRIPE_SECRET_KEY")
	envString(&config.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET")
	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
