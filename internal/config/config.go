package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/joho/godotenv/autoload"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

type Config struct {
	Env      string `env:"BAYIT_ENV" env-default:"dev"`
	Port     string `env:"BAYIT_PORT" env-default:"8080"`
	LogLevel string `env:"BAYIT_LOG_LEVEL" env-default:"info"`
	DBPath   string `env:"BAYIT_DB_PATH" env-default:"bayit.db"`
	Timezone string `env:"BAYIT_TIMEZONE" env-default:"UTC"`

	Postgres  PostgresConfig
	Generator GeneratorConfig
	Push      PushConfig
	Backup    BackupConfig
}

// PostgresConfig is only used by `bayit generate --postgres`.
type PostgresConfig struct {
	URL            string        `env:"BAYIT_POSTGRES_URL"`
	ConnectTimeout time.Duration `env:"BAYIT_POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"BAYIT_POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

type GeneratorConfig struct {
	DaysAhead   int           `env:"BAYIT_GENERATE_DAYS_AHEAD" env-default:"14"`
	Interval    time.Duration `env:"BAYIT_GENERATE_INTERVAL" env-default:"24h"`
	Concurrency int           `env:"BAYIT_GENERATE_CONCURRENCY" env-default:"4"`
}

type PushConfig struct {
	VAPIDPublicKey  string `env:"BAYIT_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"BAYIT_VAPID_PRIVATE_KEY"`
	Subscriber      string `env:"BAYIT_VAPID_SUBSCRIBER" env-default:"mailto:admin@bayit.local"`
	ReminderHour    int    `env:"BAYIT_REMINDER_HOUR" env-default:"8"`
}

type BackupConfig struct {
	S3Endpoint    string        `env:"BAYIT_S3_ENDPOINT"`
	S3Bucket      string        `env:"BAYIT_S3_BUCKET"`
	S3Region      string        `env:"BAYIT_S3_REGION" env-default:"us-east-1"`
	S3AccessKey   string        `env:"BAYIT_S3_ACCESS_KEY"`
	S3SecretKey   string        `env:"BAYIT_S3_SECRET_KEY"`
	Passphrase    string        `env:"BAYIT_BACKUP_PASSPHRASE"`
	RetentionDays int           `env:"BAYIT_BACKUP_RETENTION_DAYS" env-default:"30"`
	Interval      time.Duration `env:"BAYIT_BACKUP_INTERVAL" env-default:"24h"`
}

// Load reads the configuration from the environment (and a .env file when
// present) and validates it.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that env tags cannot express.
func (c *Config) Validate() error {
	if c.Env != EnvDev && c.Env != EnvProd {
		return fmt.Errorf("BAYIT_ENV must be %q or %q, got %q", EnvDev, EnvProd, c.Env)
	}
	if c.DBPath == "" {
		return fmt.Errorf("BAYIT_DB_PATH is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("BAYIT_TIMEZONE: %w", err)
	}
	if c.Generator.DaysAhead < 1 || c.Generator.DaysAhead > 366 {
		return fmt.Errorf("BAYIT_GENERATE_DAYS_AHEAD must be 1..366, got %d", c.Generator.DaysAhead)
	}
	if c.Generator.Interval < time.Minute {
		return fmt.Errorf("BAYIT_GENERATE_INTERVAL must be at least 1m, got %s", c.Generator.Interval)
	}
	if c.Generator.Concurrency < 1 {
		return fmt.Errorf("BAYIT_GENERATE_CONCURRENCY must be positive, got %d", c.Generator.Concurrency)
	}
	if c.Push.ReminderHour < 0 || c.Push.ReminderHour > 23 {
		return fmt.Errorf("BAYIT_REMINDER_HOUR must be 0..23, got %d", c.Push.ReminderHour)
	}
	if (c.Push.VAPIDPublicKey == "") != (c.Push.VAPIDPrivateKey == "") {
		return fmt.Errorf("BAYIT_VAPID_PUBLIC_KEY and BAYIT_VAPID_PRIVATE_KEY must be set together")
	}
	if c.Backup.RetentionDays < 1 {
		return fmt.Errorf("BAYIT_BACKUP_RETENTION_DAYS must be positive, got %d", c.Backup.RetentionDays)
	}
	return nil
}

// Location returns the configured household time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
