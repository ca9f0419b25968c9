package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	AppEnv     string
	ServerPort int
	LogLevel   string
	StaticDir  string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	SitePassword  string
	SessionSecret []byte

	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string
	Currency             string
	// ReservationTTL is how long an unpaid order may hold stock.
	ReservationTTL time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		AppEnv:     strings.ToLower(EnvDefault("APP_ENV", EnvDevelopment)),
		ServerPort: EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),
		StaticDir:  os.Getenv("STATIC_DIR"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      EnvDefault("DB_HOST", "localhost"),
		DBPort:      EnvDefault("DB_PORT", "5432"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),

		SitePassword:  os.Getenv("SITE_PASSWORD"),
		SessionSecret: []byte(os.Getenv("SESSION_SECRET")),

		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:             strings.ToLower(EnvDefault("PAYMENT_CURRENCY", "usd")),
		ReservationTTL:       time.Duration(EnvIntDefault("RESERVATION_TTL_MINUTES", 30)) * time.Minute,

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "headphones"),
	}

	if cfg.AppEnv != EnvDevelopment && cfg.AppEnv != EnvProduction {
		return nil, fmt.Errorf("unknown APP_ENV %q", cfg.AppEnv)
	}
	if cfg.ReservationTTL <= 0 {
		return nil, fmt.Errorf("RESERVATION_TTL_MINUTES must be positive")
	}

	return cfg, nil
}

// IsProduction controls the cookie Secure attribute and TLS on the database link.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// DSN prefers DATABASE_URL and falls back to the discrete DB_* parameters.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		if c.IsProduction() {
			return requireTLS(c.DatabaseURL)
		}
		return c.DatabaseURL
	}
	if c.DBName == "" {
		return ""
	}

	sslmode := "disable"
	if c.IsProduction() {
		sslmode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + sslmode,
	}
	return u.String()
}

// requireTLS adds sslmode=require to a connection string that does not set a
// mode. An explicit sslmode is left alone.
func requireTLS(dsn string) string {
	if !strings.Contains(dsn, "://") {
		if strings.Contains(dsn, "sslmode=") {
			return dsn
		}
		return strings.TrimSpace(dsn) + " sslmode=require"
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
