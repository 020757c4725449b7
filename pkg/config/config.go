package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// Supabase/hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	Auth AuthConfig

	Redis RedisConfig

	// CloudinaryURL has the form cloudinary://<key>:<secret>@<cloud>. Empty disables chat image upload.
	CloudinaryURL string

	Mailer MailerConfig

	Booking BookingConfig

	Invoices InvoiceConfig

	// AllowedOrigins is a comma-separated allowlist of browser origins. Example:
	//   https://app.yourcrew.com,http://localhost:5173
	AllowedOrigins []string

	// ChatPostsPerMinute caps message posts per sender.
	ChatPostsPerMinute int
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// RedisConfig is optional. With an empty Addr, booking drafts and chat fanout stay in process
// and future-dated invoice emails are rejected.
type RedisConfig struct {
	Addr      string
	Password  string
	SessionDB int
	QueueDB   int
}

func (c RedisConfig) Enabled() bool { return strings.TrimSpace(c.Addr) != "" }

type MailerConfig struct {
	// URL of the hosted email function (send-invoice-email). Empty logs instead of sending.
	URL    string
	Secret string
}

type BookingConfig struct {
	QuoteValidity time.Duration
	ResetDelay    time.Duration
	DraftTTL      time.Duration
}

type InvoiceConfig struct {
	DueAfter  time.Duration
	SweepSpec string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "fieldservice"),
			User:     env("DB_USER", "fieldservice"),
			Password: env("DB_PASSWORD", "fieldservice"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
			Issuer:    env("AUTH_JWT_ISSUER", "fieldservice"),
		},
		Redis: RedisConfig{
			Addr:      os.Getenv("REDIS_ADDR"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			SessionDB: envInt("REDIS_SESSION_DB", 0),
			QueueDB:   envInt("REDIS_QUEUE_DB", 1),
		},
		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
		Mailer: MailerConfig{
			URL:    os.Getenv("MAILER_URL"),
			Secret: os.Getenv("MAILER_SECRET"),
		},
		Booking: BookingConfig{
			QuoteValidity: time.Duration(envInt("QUOTE_VALID_DAYS", 30)) * 24 * time.Hour,
			ResetDelay:    envDuration("QUOTE_RESET_DELAY", 2*time.Second),
			DraftTTL:      envDuration("DRAFT_TTL", 2*time.Hour),
		},
		Invoices: InvoiceConfig{
			DueAfter:  time.Duration(envInt("INVOICE_DUE_DAYS", 30)) * 24 * time.Hour,
			SweepSpec: env("OVERDUE_SWEEP_SPEC", "@hourly"),
		},

		AllowedOrigins:     envList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173"),
		ChatPostsPerMinute: envInt("CHAT_POST_RATE", 30),
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
