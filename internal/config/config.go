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

	"github.com/spf13/viper"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendPostgres}

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration

	// Durable record
	DataBackend  string
	SQLiteDBPath string
	PostgresURL  string
	SnapshotKey  string

	// AMQP, optional: empty URL disables change events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	MirrorResyncInterval     time.Duration

	// Selector memo
	CacheSize int
	CacheTTL  time.Duration

	LogLevel string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8081")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DATA_BACKEND", BackendMemory)
	v.SetDefault("SQLITE_DB_PATH", "./data/financeflow.db")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("SNAPSHOT_KEY", "financeflow:v1")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "financeflow")
	v.SetDefault("AMQP_QUEUE", "snapshot_changed")
	v.SetDefault("GOOGLE_SPREADSHEET_ID", "")
	v.SetDefault("GOOGLE_SHEET_NAME", "Transactions")
	v.SetDefault("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	v.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	v.SetDefault("MIRROR_RESYNC_INTERVAL", "10m")
	v.SetDefault("CACHE_SIZE", 256)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("LOG_LEVEL", "info")
}

// Load reads the configuration from the environment. Call godotenv first
// when a .env file should be honoured.
func Load() *Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

// LoadFile layers a config file (any format viper reads) under the
// environment. Environment variables still win.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	v.AutomaticEnv()
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Port:            strings.TrimSpace(v.GetString("PORT")),
		ShutdownTimeout: durationOr(v, "SHUTDOWN_TIMEOUT", 10*time.Second),

		DataBackend:  strings.ToLower(strings.TrimSpace(v.GetString("DATA_BACKEND"))),
		SQLiteDBPath: v.GetString("SQLITE_DB_PATH"),
		PostgresURL:  v.GetString("POSTGRES_URL"),
		SnapshotKey:  v.GetString("SNAPSHOT_KEY"),

		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),
		AMQPQueue:    v.GetString("AMQP_QUEUE"),

		GoogleSpreadsheetID:      strings.TrimSpace(v.GetString("GOOGLE_SPREADSHEET_ID")),
		GoogleSheetName:          strings.TrimSpace(v.GetString("GOOGLE_SHEET_NAME")),
		GoogleServiceAccountJSON: strings.TrimSpace(v.GetString("GOOGLE_SERVICE_ACCOUNT_JSON")),
		GoogleServiceAccountFile: strings.TrimSpace(v.GetString("GOOGLE_SERVICE_ACCOUNT_FILE")),
		MirrorResyncInterval:     durationOr(v, "MIRROR_RESYNC_INTERVAL", 10*time.Minute),

		CacheSize: v.GetInt("CACHE_SIZE"),
		CacheTTL:  durationOr(v, "CACHE_TTL", 5*time.Minute),

		LogLevel: v.GetString("LOG_LEVEL"),
	}
}

// durationOr keeps an unparseable value visible to Validate as a zero
// duration rather than silently using the default.
func durationOr(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}

// Validate validates the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.DataBackend == BackendPostgres {
		if c.PostgresURL == "" {
			errs = append(errs, "POSTGRES_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errs = append(errs, fmt.Sprintf("invalid POSTGRES_URL '%s': must be a postgres:// URL", c.PostgresURL))
		}
	}

	if strings.TrimSpace(c.SnapshotKey) == "" {
		errs = append(errs, "SNAPSHOT_KEY cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateMirror checks the settings only the Sheets mirror worker needs.
func (c *Config) ValidateMirror() error {
	var errs []string
	if c.AMQPURL == "" {
		errs = append(errs, "AMQP_URL is required for the mirror worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errs = append(errs, "Google Spreadsheet ID is required for the mirror worker")
	}
	if c.GoogleSheetName == "" {
		errs = append(errs, "Google Sheet name is required for the mirror worker")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	if c.MirrorResyncInterval < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid mirror resync interval %v: must be at least 1 minute", c.MirrorResyncInterval))
	}
	if c.DataBackend == BackendMemory {
		errs = append(errs, "the mirror worker needs a shared backend (sqlite or postgres)")
	}
	if len(errs) > 0 {
		return fmt.Errorf("mirror configuration invalid:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
