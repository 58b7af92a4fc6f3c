// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Mail     MailConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// DatabaseConfig holds database configuration.
//
// Driver selects the backend: "sqlite" for single-node deployments,
// "postgres" for anything shared. Path is the sqlite file, DSN the
// postgres connection string.
type DatabaseConfig struct {
	Driver string
	Path   string
	DSN    string
}

// AuthConfig holds session and login configuration.
type AuthConfig struct {
	SessionDuration    time.Duration // e.g., 720h (30 days)
	SecureCookies      bool
	LoginRatePerMinute float64
	LoginBurst         int
}

// SMTPProvider describes one outgoing mail account.
type SMTPProvider struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
	UseSSL   bool
}

// MailConfig holds outgoing mail configuration.
// Providers are keyed by name; DefaultProvider selects which one is used.
type MailConfig struct {
	Enabled         bool
	DefaultProvider string
	Timeout         time.Duration
	Providers       map[string]SMTPProvider
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")

	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	dbDriver := flag.String("db-driver", "", "Database driver (sqlite or postgres)")
	dbPath := flag.String("db-path", "", "Path to sqlite database file")
	dbDSN := flag.String("db-dsn", "", "Postgres connection string")

	sessionDuration := flag.String("session-duration", "", "Login session lifetime (default: 720h)")
	secureCookies := flag.String("secure-cookies", "", "Mark session cookies Secure (default: false)")

	smtpProvider := flag.String("smtp-provider", "", "Default SMTP provider (gmail or o365)")
	mailEnabled := flag.String("mail-enabled", "", "Send notification mail for new leads (default: true)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	// godotenv never overrides variables already set in the environment.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Driver: getConfigValue(*dbDriver, "DB_DRIVER", "sqlite"),
			Path:   getConfigValue(*dbPath, "DB_PATH", "leadtrack.db"),
			DSN:    getConfigValue(*dbDSN, "DB_DSN", ""),
		},
		Auth: AuthConfig{
			SecureCookies:      getBoolConfigValue(*secureCookies, "SECURE_COOKIES", false),
			LoginRatePerMinute: float64(getIntConfigValue("", "LOGIN_RATE_PER_MINUTE", 10)),
			LoginBurst:         getIntConfigValue("", "LOGIN_BURST", 5),
		},
		Mail: MailConfig{
			Enabled:         getBoolConfigValue(*mailEnabled, "MAIL_ENABLED", true),
			DefaultProvider: getConfigValue(*smtpProvider, "DEFAULT_SMTP_PROVIDER", "gmail"),
			Providers:       loadMailProviders(),
		},
	}

	sessionDurationStr := getConfigValue(*sessionDuration, "SESSION_DURATION", "720h")
	sessionDurationParsed, err := time.ParseDuration(sessionDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid session duration %q: %w", sessionDurationStr, err)
	}
	cfg.Auth.SessionDuration = sessionDurationParsed

	mailTimeoutStr := getConfigValue("", "MAIL_TIMEOUT", "15s")
	mailTimeout, err := time.ParseDuration(mailTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid mail timeout %q: %w", mailTimeoutStr, err)
	}
	cfg.Mail.Timeout = mailTimeout

	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadMailProviders builds the known SMTP provider table from the environment.
// Both providers speak STARTTLS on port 587.
func loadMailProviders() map[string]SMTPProvider {
	from := os.Getenv("DEFAULT_FROM_EMAIL")

	gmailFrom := from
	if gmailFrom == "" {
		gmailFrom = os.Getenv("EMAIL_HOST_USER")
	}
	o365From := from
	if o365From == "" {
		o365From = os.Getenv("O365_EMAIL_USER")
	}

	return map[string]SMTPProvider{
		"gmail": {
			Host:     "smtp.gmail.com",
			Port:     587,
			Username: os.Getenv("EMAIL_HOST_USER"),
			Password: os.Getenv("EMAIL_HOST_PASSWORD"),
			From:     gmailFrom,
			UseTLS:   true,
		},
		"o365": {
			Host:     "smtp.office365.com",
			Port:     587,
			Username: os.Getenv("O365_EMAIL_USER"),
			Password: os.Getenv("O365_EMAIL_PASSWORD"),
			From:     o365From,
			UseTLS:   true,
		},
	}
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("DB_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite or postgres)", c.Database.Driver)
	}

	if _, ok := c.Mail.Providers[c.Mail.DefaultProvider]; !ok {
		return fmt.Errorf("unknown SMTP provider: %s", c.Mail.DefaultProvider)
	}

	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}
