package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Redis      RedisConfig
	Server     ServerConfig
	Catalog    CatalogConfig
	Chat       ChatConfig
	Mortgage   MortgageConfig
	Leads      LeadsConfig
	Profile    ProfileConfig
	Logging    LoggingConfig
	Voice      VoiceConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence over parts
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// RedisConfig holds Redis configuration for the profile store
type RedisConfig struct {
	URL       string
	KeyPrefix string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// CatalogConfig selects the listing catalog backend
type CatalogConfig struct {
	Backend      string // memory or postgres
	DefaultLimit int
	MaxLimit     int
	SimilarLimit int
	FeaturedMax  int
}

// DelayWindow is a uniform random range of [MinMs, MinMs+SpanMs] milliseconds
type DelayWindow struct {
	MinMs  int
	SpanMs int
}

// ChatConfig holds the simulated thinking delays per turn kind
type ChatConfig struct {
	TypedDelay DelayWindow
	QuickDelay DelayWindow
	VoiceDelay DelayWindow
	ReplyWait  int // seconds a synchronous HTTP submit waits for the reply
}

// MortgageConfig holds calculator defaults
type MortgageConfig struct {
	DefaultDownPaymentPercent float64
	DefaultInterestRate       float64
	DefaultLoanTermYears      int
	InsuranceRate             float64
}

// LeadsConfig selects where submitted leads are delivered
type LeadsConfig struct {
	Backend   string // http, database or log
	IntakeURL string
	DBDriver  string // postgres or sqlite
	DBDSN     string
	Timeout   int
}

// ProfileConfig selects the key-value backend for lead profiles
type ProfileConfig struct {
	Backend    string // memory or redis
	StorageKey string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// VoiceConfig holds voice bridge configuration
type VoiceConfig struct {
	Enabled bool
	Lang    string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "concierge"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 2),
		},
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "concierge:"),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Catalog: CatalogConfig{
			Backend:      strings.ToLower(getEnv("CATALOG_BACKEND", "memory")),
			DefaultLimit: getEnvAsInt("CATALOG_DEFAULT_LIMIT", 20),
			MaxLimit:     getEnvAsInt("CATALOG_MAX_LIMIT", 100),
			SimilarLimit: getEnvAsInt("CATALOG_SIMILAR_LIMIT", 3),
			FeaturedMax:  getEnvAsInt("CATALOG_FEATURED_LIMIT", 6),
		},
		Chat: ChatConfig{
			TypedDelay: DelayWindow{MinMs: getEnvAsInt("CHAT_TYPED_DELAY_MIN_MS", 1000), SpanMs: getEnvAsInt("CHAT_TYPED_DELAY_SPAN_MS", 2000)},
			QuickDelay: DelayWindow{MinMs: getEnvAsInt("CHAT_QUICK_DELAY_MIN_MS", 800), SpanMs: getEnvAsInt("CHAT_QUICK_DELAY_SPAN_MS", 1200)},
			VoiceDelay: DelayWindow{MinMs: getEnvAsInt("CHAT_VOICE_DELAY_MIN_MS", 1000), SpanMs: getEnvAsInt("CHAT_VOICE_DELAY_SPAN_MS", 1500)},
			ReplyWait:  getEnvAsInt("CHAT_REPLY_WAIT_SECONDS", 10),
		},
		Mortgage: MortgageConfig{
			DefaultDownPaymentPercent: getEnvAsFloat("MORTGAGE_DOWN_PAYMENT_PERCENT", 20),
			DefaultInterestRate:       getEnvAsFloat("MORTGAGE_INTEREST_RATE", 6.5),
			DefaultLoanTermYears:      getEnvAsInt("MORTGAGE_LOAN_TERM_YEARS", 30),
			InsuranceRate:             getEnvAsFloat("MORTGAGE_INSURANCE_RATE", 0.0035),
		},
		Leads: LeadsConfig{
			Backend:   strings.ToLower(getEnv("LEADS_BACKEND", "database")),
			IntakeURL: getEnv("LEADS_INTAKE_URL", ""),
			DBDriver:  strings.ToLower(getEnv("LEADS_DB_DRIVER", "sqlite")),
			DBDSN:     getEnv("LEADS_DB_DSN", "leads.db"),
			Timeout:   getEnvAsInt("LEADS_TIMEOUT", 10),
		},
		Profile: ProfileConfig{
			Backend:    strings.ToLower(getEnv("PROFILE_BACKEND", "memory")),
			StorageKey: getEnv("PROFILE_STORAGE_KEY", "leadProfile"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Voice: VoiceConfig{
			Enabled: getEnvAsBool("VOICE_ENABLED", true),
			Lang:    getEnv("VOICE_LANG", "en-AU"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Catalog.Backend {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unknown CATALOG_BACKEND %q", c.Catalog.Backend)
	}
	switch c.Leads.Backend {
	case "http":
		if c.Leads.IntakeURL == "" {
			return fmt.Errorf("LEADS_INTAKE_URL must be set when LEADS_BACKEND=http")
		}
	case "database", "log":
	default:
		return fmt.Errorf("unknown LEADS_BACKEND %q", c.Leads.Backend)
	}
	switch c.Profile.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown PROFILE_BACKEND %q", c.Profile.Backend)
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}
