// Package config loads runtime settings from the environment, after
// folding in a .env file when one is present.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port string `envconfig:"PORT" default:"8080"`

	DB      DBConfig
	Auth    AuthConfig
	Logging LoggingConfig
	Storage StorageConfig
	Events  EventsConfig

	OtelEnabled           bool          `envconfig:"OTEL_ENABLED" default:"false"`
	ReminderInterval      time.Duration `envconfig:"REMINDER_INTERVAL" default:"1h"`
	NotificationRetention time.Duration `envconfig:"NOTIFICATION_RETENTION" default:"720h"`
	Currency              string        `envconfig:"CURRENCY" default:"THB"`
}

type DBConfig struct {
	Driver      string `envconfig:"DB_DRIVER" default:"postgres"`
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD"`
	Name        string `envconfig:"DB_NAME" default:"thaoshare"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	Path        string `envconfig:"DB_PATH" default:"thaoshare.db"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

func (c DBConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret string        `envconfig:"JWT_SECRET"`
	TokenTTL  time.Duration `envconfig:"JWT_TTL" default:"24h"`
}

type LoggingConfig struct {
	Level         string `envconfig:"LOG_LEVEL" default:"info"`
	Format        string `envconfig:"LOG_FORMAT" default:"text"`
	IncludeCaller bool   `envconfig:"LOG_CALLER" default:"false"`
}

type StorageConfig struct {
	Provider  string `envconfig:"STORAGE_PROVIDER" default:"local"`
	Dir       string `envconfig:"STORAGE_DIR" default:"uploads"`
	PublicURL string `envconfig:"STORAGE_PUBLIC_URL" default:"/uploads"`
	Bucket    string `envconfig:"GCS_BUCKET"`
}

type EventsConfig struct {
	Driver   string `envconfig:"EVENTS_DRIVER" default:"memory"`
	URL      string `envconfig:"RABBIT_URL"`
	Exchange string `envconfig:"EVENTS_EXCHANGE" default:"thaoshare.changes"`
	Queue    string `envconfig:"EVENTS_QUEUE"`
}

func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// Load reads .env (if any) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	cfg.Storage.Provider = strings.ToLower(strings.TrimSpace(cfg.Storage.Provider))
	cfg.Events.Driver = strings.ToLower(strings.TrimSpace(cfg.Events.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	switch c.Storage.Provider {
	case "local":
	case "gcs":
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET is required for the gcs provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_PROVIDER %q", c.Storage.Provider))
	}
	switch c.Events.Driver {
	case "memory":
	case "amqp":
		if c.Events.URL == "" {
			errs = append(errs, errors.New("RABBIT_URL is required for the amqp events driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EVENTS_DRIVER %q", c.Events.Driver))
	}
	if c.ReminderInterval <= 0 {
		errs = append(errs, errors.New("REMINDER_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}
