package config

import (
	"fmt"
	"log"
	"net/url"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read once at startup and passed down to constructors.
type Config struct {
	Port     string `env:"PORT"      envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBUser     string `env:"DB_USER"     envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBHost     string `env:"DB_HOST"     envDefault:"localhost"`
	DBPort     string `env:"DB_PORT"     envDefault:"5432"`
	DBName     string `env:"DB_NAME"     envDefault:"plusnotify"`
	DBSSLMode  string `env:"DB_SSLMODE"  envDefault:"require"`

	// AdminToken authorizes the notification create/update endpoints.
	AdminToken string `env:"NOTIFICATIONS_ADMIN_TOKEN"`

	JWTSecret string `env:"SUBSCRIBER_JWT_SECRET"`
	JWTIssuer string `env:"SUBSCRIBER_JWT_ISSUER"`

	SessionCookie string `env:"SESSION_COOKIE_NAME" envDefault:"sessionid"`

	// ChangesFile is read by the update endpoint. Empty means no changes.
	ChangesFile string `env:"NOTIFICATIONS_CHANGES_FILE"`
	// ChangesSchedule is a cron spec for publishing the changes file
	// without an admin call. Empty disables it.
	ChangesSchedule string `env:"NOTIFICATIONS_CHANGES_SCHEDULE"`

	AllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`
}

// Load reads .env if present, then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables from OS")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// DSN builds the postgres connection string.
func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}
