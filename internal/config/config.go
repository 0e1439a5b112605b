package config

import (
	"fmt"
	"os"
)

// Config holds application configuration
type Config struct {
	Port              string
	DBConn            string
	LogLevel          string
	JWTSecret         string
	DetectionSchedule string
	SMTPHost          string
	SMTPPort          string
	SMTPUsername      string
	SMTPPassword      string
	AlertEmailFrom    string
	AlertEmailTo      string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DBConn:            getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=financedb sslmode=disable"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		DetectionSchedule: getEnv("DETECTION_SCHEDULE", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUsername:      getEnv("SMTP_USER", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		AlertEmailFrom:    getEnv("ALERT_EMAIL_FROM", ""),
		AlertEmailTo:      getEnv("ALERT_EMAIL_TO", ""),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// NotificationsEnabled reports whether alert emails are configured.
func (c *Config) NotificationsEnabled() bool {
	return c.SMTPHost != "" && c.AlertEmailTo != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
