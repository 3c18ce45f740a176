package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AWS           AWSConfig
	Registration  RegistrationConfig
	Organizations OrganizationsConfig
	CallerCache   CallerCacheConfig
	Worker        WorkerConfig
	Email         EmailConfig
}

// EmailConfig identifies the sender of outbound notifications.
type EmailConfig struct {
	FromAddress string
	FromName    string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	RequestTimeout     int    // seconds; deadline applied to every persistence call of a request
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,http://localhost:3001)
}

// RequestDeadline returns the per-request timeout.
func (c ServerConfig) RequestDeadline() time.Duration {
	if c.RequestTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// AllowedOrigins splits CORSAllowedOrigins.
func (c ServerConfig) AllowedOrigins() []string {
	return splitTrim(c.CORSAllowedOrigins, ",")
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string // if set, used as-is (e.g. postgres://localhost:5432/aura?sslmode=disable)
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxConnLifetime int // minutes
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and S3 bucket names.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	LogosBucket          string
	PresignExpireMinutes int
}

// RegistrationConfig holds ticketing settings.
type RegistrationConfig struct {
	ConfirmationCodeLength int
}

// OrganizationsConfig holds tenant onboarding settings.
type OrganizationsConfig struct {
	TrialDays int
}

// TrialPeriod returns the trial length.
func (c OrganizationsConfig) TrialPeriod() time.Duration {
	return time.Duration(c.TrialDays) * 24 * time.Hour
}

// CallerCacheConfig sizes the resolved-caller cache.
type CallerCacheConfig struct {
	Size   int
	TTLSec int
}

// TTL returns the cache entry lifetime.
func (c CallerCacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	TrialSweepSchedule string // cron spec
	Concurrency        int
	MetricsPort        string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			RequestTimeout:     getEnvInt("REQUEST_TIMEOUT_SEC", 10),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "aura"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxConns:        getEnvInt("DB_MAX_CONNS", 20),
			MaxConnLifetime: getEnvInt("DB_MAX_CONN_LIFETIME_MIN", 30),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			LogosBucket:          getEnv("AWS_S3_LOGOS_BUCKET", "aura-logos-bucket"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Registration: RegistrationConfig{
			ConfirmationCodeLength: getEnvInt("CONFIRMATION_CODE_LENGTH", 8),
		},
		Organizations: OrganizationsConfig{
			TrialDays: getEnvInt("TRIAL_DAYS", 14),
		},
		CallerCache: CallerCacheConfig{
			Size:   getEnvInt("CALLER_CACHE_SIZE", 10000),
			TTLSec: getEnvInt("CALLER_CACHE_TTL_SEC", 30),
		},
		Worker: WorkerConfig{
			TrialSweepSchedule: getEnv("TRIAL_SWEEP_SCHEDULE", "@hourly"),
			Concurrency:        getEnvInt("WORKER_CONCURRENCY", 2),
			MetricsPort:        getEnv("WORKER_METRICS_PORT", "9091"),
		},
		Email: EmailConfig{
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@example.com"),
			FromName:    getEnv("EMAIL_FROM_NAME", "Aura Events"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Registration.ConfirmationCodeLength < 6 {
		return fmt.Errorf("CONFIRMATION_CODE_LENGTH must be at least 6, got %d", c.Registration.ConfirmationCodeLength)
	}
	if c.Organizations.TrialDays < 0 {
		return fmt.Errorf("TRIAL_DAYS must not be negative, got %d", c.Organizations.TrialDays)
	}
	if c.CallerCache.Size <= 0 {
		return fmt.Errorf("CALLER_CACHE_SIZE must be positive, got %d", c.CallerCache.Size)
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
