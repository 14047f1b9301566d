package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreFirestore = "firestore"
	StoreSQLite    = "sqlite"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port     string
	LogLevel string

	// Document store
	StoreBackend      string
	FirebaseProjectID string
	FirestoreBaseURL  string
	DatabasePath      string

	// Identity provider
	FirebaseAPIKey  string
	IdentityBaseURL string
	TokenCacheTTL   time.Duration

	// Quotes provider
	QuotesBaseURL     string
	QuotesAPIToken    string
	QuotesBatchSize   int
	QuotesCacheTTL    time.Duration
	QuoteWarmSchedule string

	// Page sizes for the list-then-filter reads
	PortfolioPageSize   int
	AssetPageSize       int
	TransactionPageSize int
	DividendPageSize    int

	// HTTP surface
	MaxUploadSizeBytes int64
	AllowedOrigins     []string
}

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() (*AppConfig, error) {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	cfg := &AppConfig{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend:      strings.ToLower(getEnv("STORE_BACKEND", StoreFirestore)),
		FirebaseProjectID: getEnv("FIREBASE_PROJECT_ID", ""),
		FirestoreBaseURL:  getEnv("FIRESTORE_BASE_URL", "https://firestore.googleapis.com/v1"),
		DatabasePath:      getEnv("DATABASE_PATH", "./yieldlab.db"),

		FirebaseAPIKey:  getEnv("FIREBASE_API_KEY", ""),
		IdentityBaseURL: getEnv("IDENTITY_BASE_URL", "https://identitytoolkit.googleapis.com/v1"),
		TokenCacheTTL:   getEnvAsDuration("TOKEN_CACHE_TTL", 5*time.Minute),

		QuotesBaseURL:     getEnv("QUOTES_BASE_URL", "https://brapi.dev/api"),
		QuotesAPIToken:    getEnv("QUOTES_API_TOKEN", ""),
		QuotesBatchSize:   getEnvAsInt("QUOTES_BATCH_SIZE", 5),
		QuotesCacheTTL:    getEnvAsDuration("QUOTES_CACHE_TTL", 60*time.Second),
		QuoteWarmSchedule: getEnv("QUOTE_WARM_SCHEDULE", ""),

		PortfolioPageSize:   getEnvAsInt("PORTFOLIO_PAGE_SIZE", 100),
		AssetPageSize:       getEnvAsInt("ASSET_PAGE_SIZE", 100),
		TransactionPageSize: getEnvAsInt("TRANSACTION_PAGE_SIZE", 200),
		DividendPageSize:    getEnvAsInt("DIVIDEND_PAGE_SIZE", 200),

		MaxUploadSizeBytes: getEnvAsInt64("MAX_UPLOAD_SIZE_BYTES", 5*1024*1024),
		AllowedOrigins:     getList("ALLOWED_ORIGINS", "*"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, Store=%s, QuotesURL=%s",
		cfg.Port, cfg.LogLevel, cfg.StoreBackend, cfg.QuotesBaseURL)
	return cfg, nil
}

// Validate checks the combinations the server cannot start without.
func (c *AppConfig) Validate() error {
	switch c.StoreBackend {
	case StoreFirestore:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when STORE_BACKEND=%s", StoreFirestore)
		}
	case StoreSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required when STORE_BACKEND=%s", StoreSQLite)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.FirebaseAPIKey == "" {
		return fmt.Errorf("FIREBASE_API_KEY is required")
	}
	if c.QuotesBatchSize <= 0 {
		return fmt.Errorf("QUOTES_BATCH_SIZE must be positive, got %d", c.QuotesBatchSize)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getList parses a comma-separated variable, trimming blanks.
func getList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
