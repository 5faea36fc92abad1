package config

import "os"

// Config holds marketplace server configuration.
type Config struct {
	Port   string
	Env    string
	DBPath string

	// Publishable payment configuration handed to clients.
	PublishableKey string
	// WidgetURL points clients at the payment provider. When empty the
	// server advertises its own simulated provider endpoints.
	WidgetURL string
}

// Load returns configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "5000"),
		Env:            getEnv("ENV", "development"),
		DBPath:         getEnv("DB_PATH", "marketplace.db"),
		PublishableKey: getEnv("PAYMENT_PUBLISHABLE_KEY", "pk_test_simulated"),
		WidgetURL:      getEnv("PAYMENT_WIDGET_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
