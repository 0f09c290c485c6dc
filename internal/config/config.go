package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"

	DriveGoogle = "google"
	DriveLocal  = "local"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	DocsDir            string

	// Config document storage
	ConfigBackend string
	ConfigPath    string

	// Database
	SQLiteDBPath   string
	HistoryEnabled bool

	// Workbook storage
	DriveBackend    string
	DriveLocalDir   string
	DriveFolderName string
	DriveFileName   string

	// Google credentials
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	SyncTimeout           time.Duration
	PendingInterval       time.Duration
	ScheduleCheckInterval time.Duration

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		DocsDir:            getEnv("DOCS_DIR", "docs"),

		ConfigBackend: getEnv("CONFIG_BACKEND", BackendFile),
		ConfigPath:    getEnv("CONFIG_PATH", "config/configuracion.json"),

		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "data/gastos.db"),
		HistoryEnabled: getEnvBool("HISTORY_ENABLED", true),

		DriveBackend:    getEnv("DRIVE_BACKEND", DriveLocal),
		DriveLocalDir:   getEnv("DRIVE_LOCAL_DIR", "data/drive"),
		DriveFolderName: getEnv("DRIVE_FOLDER_NAME", "ControlDeGastos"),
		DriveFileName:   getEnv("DRIVE_FILE_NAME", "ControlDeGastos.xlsx"),

		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", "credentials.json"),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", "token.json"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "gastos"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "gastos_sync"),

		SyncTimeout:           getEnvDuration("SYNC_TIMEOUT", 60*time.Second),
		PendingInterval:       getEnvDuration("PENDING_INTERVAL", time.Minute),
		ScheduleCheckInterval: getEnvDuration("SCHEDULE_CHECK_INTERVAL", time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// UsesSQLite reports whether the SQLite database is opened.
func (c *Config) UsesSQLite() bool {
	return c.ConfigBackend == BackendSQLite || c.HistoryEnabled
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendFile, BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.ConfigBackend) {
		errors = append(errors, fmt.Sprintf("invalid config backend '%s': must be one of %v", c.ConfigBackend, validBackends))
	}
	if c.ConfigBackend == BackendFile && c.ConfigPath == "" {
		errors = append(errors, "config path cannot be empty when using file backend")
	}

	if c.UsesSQLite() {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend or history")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	validDrives := []string{DriveGoogle, DriveLocal}
	if !slices.Contains(validDrives, c.DriveBackend) {
		errors = append(errors, fmt.Sprintf("invalid drive backend '%s': must be one of %v", c.DriveBackend, validDrives))
	}
	if c.DriveBackend == DriveLocal && c.DriveLocalDir == "" {
		errors = append(errors, "drive directory cannot be empty when using local drive backend")
	}
	if c.DriveFileName == "" || !strings.HasSuffix(strings.ToLower(c.DriveFileName), ".xlsx") {
		errors = append(errors, fmt.Sprintf("invalid drive file name '%s': must end in .xlsx", c.DriveFileName))
	}
	if c.DriveBackend == DriveGoogle && c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		// OAuth user flow: both files must exist
		for _, f := range []string{c.GoogleOAuthClientFile, c.GoogleOAuthTokenFile} {
			if _, err := os.Stat(f); err != nil {
				errors = append(errors, fmt.Sprintf("Google OAuth file does not exist: %s (run oauth-init or set GOOGLE_SERVICE_ACCOUNT_FILE)", f))
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}
	if c.SyncTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync timeout %v: must be at least 1 second", c.SyncTimeout))
	}
	for name, d := range map[string]time.Duration{
		"pending interval":        c.PendingInterval,
		"schedule check interval": c.ScheduleCheckInterval,
	} {
		if d < time.Second {
			errors = append(errors, fmt.Sprintf("invalid %s %v: must be at least 1 second", name, d))
		} else if d > 24*time.Hour {
			errors = append(errors, fmt.Sprintf("invalid %s %v: must be at most 24 hours", name, d))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		slices.Sort(errors)
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
