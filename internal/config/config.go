package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Ledger store backends.
const (
	BackendRemote = "remote"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var validBackends = []string{BackendMemory, BackendRemote, BackendSQLite}

type Config struct {
	// HTTP Server
	Port     string
	LogLevel slog.Level

	// Ledger store
	DataBackend          string
	LedgerStoreURL       string
	LedgerStoreKey       string
	LedgerStoreKeyHeader string
	LedgerDocumentID     string
	LedgerTimeout        time.Duration
	SQLiteDBPath         string
	// MemorySeedFile optionally seeds the memory backend.
	MemorySeedFile string

	// Projections
	TemplatePath string

	// Photo host
	PhotoUploadURL string
	PhotoAPIKey    string
	PhotoTimeout   time.Duration
	// PhotoCacheTTL bounds how long downloaded photos are reused by exports.
	PhotoCacheTTL  time.Duration

	// AMQP, optional for the web app
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets archive (worker)
	GoogleSpreadsheetID      string
	GoogleArchiveSheetName   string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnvLevel("LOG_LEVEL", slog.LevelInfo),

		DataBackend:          strings.ToLower(getEnv("DATA_BACKEND", BackendMemory)),
		LedgerStoreURL:       getEnv("LEDGER_STORE_URL", ""),
		LedgerStoreKey:       getEnv("LEDGER_STORE_KEY", ""),
		LedgerStoreKeyHeader: getEnv("LEDGER_STORE_KEY_HEADER", "X-Master-Key"),
		LedgerDocumentID:     getEnv("LEDGER_DOCUMENT_ID", ""),
		LedgerTimeout:        getEnvDuration("LEDGER_TIMEOUT", 10*time.Second),
		SQLiteDBPath:         getEnv("SQLITE_DB_PATH", "./data/notaspese.db"),
		MemorySeedFile:       getEnv("MEMORY_SEED_FILE", ""),

		TemplatePath: getEnv("TEMPLATE_PATH", "modello_spese.xlsx"),

		PhotoUploadURL: getEnv("PHOTO_UPLOAD_URL", ""),
		PhotoAPIKey:    getEnv("PHOTO_API_KEY", ""),
		PhotoTimeout:   getEnvDuration("PHOTO_TIMEOUT", 30*time.Second),
		PhotoCacheTTL:  getEnvDuration("PHOTO_CACHE_TTL", time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "notaspese"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "week_closed"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleArchiveSheetName:   getEnv("GOOGLE_ARCHIVE_SHEET_NAME", "Archivio"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendRemote:
		if c.LedgerStoreURL == "" {
			errors = append(errors, "LEDGER_STORE_URL is required when using remote backend")
		} else if err := checkHTTPURL(c.LedgerStoreURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid LEDGER_STORE_URL: %v", err))
		}
		if c.LedgerDocumentID == "" {
			errors = append(errors, "LEDGER_DOCUMENT_ID is required when using remote backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
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

	if c.LedgerTimeout < 100*time.Millisecond || c.LedgerTimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid ledger timeout %v: must be between 100ms and 2m", c.LedgerTimeout))
	}
	if c.PhotoTimeout < 100*time.Millisecond || c.PhotoTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid photo timeout %v: must be between 100ms and 5m", c.PhotoTimeout))
	}

	if c.PhotoUploadURL != "" {
		if err := checkHTTPURL(c.PhotoUploadURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid PHOTO_UPLOAD_URL: %v", err))
		}
	}

	if c.TemplatePath == "" {
		errors = append(errors, "TEMPLATE_PATH cannot be empty")
	}

	errors = append(errors, c.amqpErrors()...)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker checks what the archive worker needs: a broker and a
// Google spreadsheet.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the archive worker")
	}
	errors = append(errors, c.amqpErrors()...)
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the archive worker")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) amqpErrors() []string {
	if c.AMQPURL == "" {
		return nil
	}
	var errors []string
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
	return errors
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme '%s' must be 'http' or 'https'", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

func getEnvLevel(key string, defaultValue slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return defaultValue
	}
	return level
}
