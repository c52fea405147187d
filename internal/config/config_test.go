package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// unsetEnv removes key for the duration of the test. An empty but set
// variable would override env-default.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"BAYIT_ENV", "BAYIT_PORT", "BAYIT_TIMEZONE", "BAYIT_DB_PATH",
		"BAYIT_GENERATE_DAYS_AHEAD", "BAYIT_GENERATE_INTERVAL", "BAYIT_GENERATE_CONCURRENCY",
		"BAYIT_REMINDER_HOUR", "BAYIT_VAPID_PUBLIC_KEY", "BAYIT_VAPID_PRIVATE_KEY"} {
		unsetEnv(t, key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Generator.DaysAhead != 14 {
		t.Errorf("DaysAhead = %d, want 14", cfg.Generator.DaysAhead)
	}
	if cfg.Generator.Interval != 24*time.Hour {
		t.Errorf("Interval = %v, want 24h", cfg.Generator.Interval)
	}
	if cfg.Generator.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Generator.Concurrency)
	}
	if cfg.Push.ReminderHour != 8 {
		t.Errorf("ReminderHour = %d, want 8", cfg.Push.ReminderHour)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", cfg.Location())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BAYIT_ENV", "prod")
	t.Setenv("BAYIT_TIMEZONE", "Asia/Jerusalem")
	t.Setenv("BAYIT_GENERATE_DAYS_AHEAD", "30")
	t.Setenv("BAYIT_GENERATE_INTERVAL", "6h")
	t.Setenv("BAYIT_REMINDER_HOUR", "19")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Env != EnvProd {
		t.Errorf("Env = %q", cfg.Env)
	}
	if cfg.Generator.DaysAhead != 30 || cfg.Generator.Interval != 6*time.Hour {
		t.Errorf("Generator = %+v", cfg.Generator)
	}
	if cfg.Push.ReminderHour != 19 {
		t.Errorf("ReminderHour = %d", cfg.Push.ReminderHour)
	}
	if cfg.Location().String() != "Asia/Jerusalem" {
		t.Errorf("Location() = %v", cfg.Location())
	}
}

func validConfig() *Config {
	return &Config{
		Env:       EnvDev,
		DBPath:    "bayit.db",
		Timezone:  "UTC",
		Generator: GeneratorConfig{DaysAhead: 14, Interval: 24 * time.Hour, Concurrency: 4},
		Push:      PushConfig{ReminderHour: 8},
		Backup:    BackupConfig{RetentionDays: 30},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad env", func(c *Config) { c.Env = "staging" }, "BAYIT_ENV"},
		{"no db path", func(c *Config) { c.DBPath = "" }, "BAYIT_DB_PATH"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "BAYIT_TIMEZONE"},
		{"zero days", func(c *Config) { c.Generator.DaysAhead = 0 }, "BAYIT_GENERATE_DAYS_AHEAD"},
		{"too many days", func(c *Config) { c.Generator.DaysAhead = 400 }, "BAYIT_GENERATE_DAYS_AHEAD"},
		{"short interval", func(c *Config) { c.Generator.Interval = time.Second }, "BAYIT_GENERATE_INTERVAL"},
		{"no concurrency", func(c *Config) { c.Generator.Concurrency = 0 }, "BAYIT_GENERATE_CONCURRENCY"},
		{"hour 24", func(c *Config) { c.Push.ReminderHour = 24 }, "BAYIT_REMINDER_HOUR"},
		{"half vapid", func(c *Config) { c.Push.VAPIDPublicKey = "pub" }, "BAYIT_VAPID"},
		{"no retention", func(c *Config) { c.Backup.RetentionDays = 0 }, "BAYIT_BACKUP_RETENTION_DAYS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
