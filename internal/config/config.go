// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultSQLiteSource = "propspot_ops.db"

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode           string        `mapstructure:"GIN_MODE"`
	ServerHost        string        `mapstructure:"SERVER_HOST"`
	ServerPort        string        `mapstructure:"SERVER_PORT"`
	ServerTimeout     time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`
	CORSAllowedOrigin string        `mapstructure:"CORS_ALLOWED_ORIGIN"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseAPIKey                string `mapstructure:"FIREBASE_API_KEY"`
	FirebaseUseEmulator           bool   `mapstructure:"FIREBASE_USE_EMULATOR"`
	FirestoreEmulatorHost         string `mapstructure:"FIRESTORE_EMULATOR_HOST"`
	FirebaseAuthEmulatorHost      string `mapstructure:"FIREBASE_AUTH_EMULATOR_HOST"`

	// Document collections
	PropsCollection     string `mapstructure:"PROPS_COLLECTION"`
	ProfilesCollection  string `mapstructure:"PROFILES_COLLECTION"`
	PurgatoryCollection string `mapstructure:"PURGATORY_COLLECTION"`
	PrefsCollection     string `mapstructure:"PREFS_COLLECTION"`

	// Search / caching
	SearchRemotePrefilter bool          `mapstructure:"SEARCH_REMOTE_PREFILTER"`
	ProfileCacheSize      int           `mapstructure:"PROFILE_CACHE_SIZE"`
	ProfileCacheTTL       time.Duration `mapstructure:"PROFILE_CACHE_TTL_SECONDS"`

	// Operations journal database
	DBDriver          string        `mapstructure:"DB_DRIVER"`
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBSource          string        `mapstructure:"DB_SOURCE"`

	// Elasticsearch Configuration (empty URL disables the props index)
	ElasticsearchURL  string        `mapstructure:"ELASTICSEARCH_URL"`
	PropIndexDebounce time.Duration `mapstructure:"PROP_INDEX_DEBOUNCE_MS"`

	// Image storage
	StorageBucket          string `mapstructure:"STORAGE_BUCKET"`
	ImageTargetWidth       int    `mapstructure:"IMAGE_TARGET_WIDTH"`
	ImageResizeJobSchedule string `mapstructure:"IMAGE_RESIZE_JOB_SCHEDULE"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.ProfileCacheTTL = time.Duration(v.GetInt("PROFILE_CACHE_TTL_SECONDS")) * time.Second
	cfg.PropIndexDebounce = time.Duration(v.GetInt("PROP_INDEX_DEBOUNCE_MS")) * time.Millisecond

	// DB_SOURCE defaults to a sqlite file; postgres builds its DSN from the DB_* parts unless one was given.
	if cfg.DBDriver == "postgres" && cfg.DBSource == defaultSQLiteSource {
		cfg.DBSource = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode, cfg.DBTimezone)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	// Firebase
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_API_KEY", "")
	v.SetDefault("FIREBASE_USE_EMULATOR", false)
	v.SetDefault("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8080")
	v.SetDefault("FIREBASE_AUTH_EMULATOR_HOST", "127.0.0.1:9099")

	v.SetDefault("PROPS_COLLECTION", "props")
	v.SetDefault("PROFILES_COLLECTION", "profiles")
	v.SetDefault("PURGATORY_COLLECTION", "purgatory")
	v.SetDefault("PREFS_COLLECTION", "prefs")

	v.SetDefault("SEARCH_REMOTE_PREFILTER", false)
	v.SetDefault("PROFILE_CACHE_SIZE", 256)
	v.SetDefault("PROFILE_CACHE_TTL_SECONDS", 30)

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_SOURCE", defaultSQLiteSource)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "propspot")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.SetDefault("ELASTICSEARCH_URL", "")
	v.SetDefault("PROP_INDEX_DEBOUNCE_MS", 500)

	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("IMAGE_TARGET_WIDTH", 1080)
	v.SetDefault("IMAGE_RESIZE_JOB_SCHEDULE", "")
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("FATAL: DB_DRIVER must be 'sqlite' or 'postgres', got %q", c.DBDriver)
	}
	if c.ImageTargetWidth <= 0 {
		return fmt.Errorf("FATAL: IMAGE_TARGET_WIDTH must be positive, got %d", c.ImageTargetWidth)
	}

	if c.FirebaseUseEmulator {
		if strings.TrimSpace(c.FirebaseProjectID) == "" {
			return fmt.Errorf("FATAL: FIREBASE_PROJECT_ID is required when FIREBASE_USE_EMULATOR is set")
		}
		return nil
	}

	if strings.TrimSpace(c.FirebaseServiceAccountKeyPath) == "" {
		return fmt.Errorf("FATAL: FIREBASE_SERVICE_ACCOUNT_KEY_PATH is not set. This is required for Firebase Admin SDK initialization")
	}
	if _, err := os.Stat(c.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
		return fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", c.FirebaseServiceAccountKeyPath)
	}
	return nil
}
