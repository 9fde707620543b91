package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	JWTSecretKey   string
	ServerPort     int

	LogLevel slog.Level
	LogFile  string

	CORSAllowedOrigins []string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	UploadDir        string
	UploadPublicPath string

	RedisURL string

	SendGridAPIKey string
	MailFrom       string
	MailFromName   string
	AppName        string
	AppPublicURL   string

	NotificationDispatchInterval time.Duration
	AutoAdvanceByes              bool

	AdminEmail    string
	AdminPassword string

	SentryDSN string

	LoginRateLimitRPS   float64
	LoginRateLimitBurst int
}

// R2Enabled сообщает, заданы ли все параметры Cloudflare R2.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseDriver:     getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecretKey:       os.Getenv("JWT_SECRET_KEY"),
		LogFile:            os.Getenv("LOG_FILE"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		R2AccountID:        os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:    os.Getenv("R2_PUBLIC_BASE_URL"),
		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		UploadPublicPath:   getEnv("UPLOAD_PUBLIC_PATH", "/uploads"),
		RedisURL:           os.Getenv("REDIS_URL"),
		SendGridAPIKey:     os.Getenv("SENDGRID_API_KEY"),
		MailFrom:           getEnv("MAIL_FROM", "no-reply@efootball-cup.local"),
		MailFromName:       getEnv("MAIL_FROM_NAME", "eFootball Cup"),
		AppName:            getEnv("APP_NAME", "eFootball Cup"),
		AppPublicURL:       getEnv("APP_PUBLIC_URL", "http://localhost:8080"),
		AdminEmail:         os.Getenv("ADMIN_EMAIL"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		SentryDSN:          os.Getenv("SENTRY_DSN"),
	}

	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite3" {
		return nil, fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite3, got %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg.NotificationDispatchInterval, err = time.ParseDuration(getEnv("NOTIFICATION_DISPATCH_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_DISPATCH_INTERVAL: %w", err)
	}
	if cfg.NotificationDispatchInterval <= 0 {
		return nil, fmt.Errorf("NOTIFICATION_DISPATCH_INTERVAL must be positive")
	}

	cfg.AutoAdvanceByes, err = strconv.ParseBool(getEnv("BRACKET_AUTO_ADVANCE_BYES", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid BRACKET_AUTO_ADVANCE_BYES: %w", err)
	}

	cfg.LoginRateLimitRPS, err = strconv.ParseFloat(getEnv("LOGIN_RATE_LIMIT_RPS", "1"), 64)
	if err != nil || cfg.LoginRateLimitRPS <= 0 {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT_RPS must be a positive number")
	}
	cfg.LoginRateLimitBurst, err = strconv.Atoi(getEnv("LOGIN_RATE_LIMIT_BURST", "5"))
	if err != nil || cfg.LoginRateLimitBurst <= 0 {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT_BURST must be a positive integer")
	}

	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return nil, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
