// Package config reads server settings from TONOTE_* environment variables,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ViniZap4/tonote-server/auth"
	"github.com/ViniZap4/tonote-server/mail"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port        string
	Storage     string
	DatabaseURL string
	// MigrateOnStart applies pending migrations before serving.
	MigrateOnStart bool

	AllowOrigins string
	LogLevel     string
	LogFormat    string

	Auth   auth.Config
	SMTP   mail.SMTPConfig
	Google auth.GoogleConfig
}

// MailEnabled reports whether an SMTP host is configured. Without one mail
// is written to the log.
func (c Config) MailEnabled() bool {
	return c.SMTP.Host != ""
}

func (c Config) GoogleEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}

// Load reads the environment. Files listed in envFiles are loaded first
// without overriding variables that are already set; missing files are
// skipped.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	a := auth.DefaultConfig()
	cfg := Config{
		Port:           env("TONOTE_PORT", "8080"),
		Storage:        strings.ToLower(env("TONOTE_STORAGE", StoragePostgres)),
		DatabaseURL:    os.Getenv("TONOTE_DATABASE_URL"),
		AllowOrigins:   env("TONOTE_ALLOW_ORIGINS", "*"),
		LogLevel:       env("TONOTE_LOG_LEVEL", "info"),
		LogFormat:      env("TONOTE_LOG_FORMAT", "console"),
		MigrateOnStart: true,
		Auth:           a,
		SMTP: mail.SMTPConfig{
			Host:     os.Getenv("TONOTE_SMTP_HOST"),
			Username: os.Getenv("TONOTE_SMTP_USERNAME"),
			Password: os.Getenv("TONOTE_SMTP_PASSWORD"),
			From:     env("TONOTE_SMTP_FROM", "ToNote <no-reply@tonote.app>"),
			TLS:      env("TONOTE_SMTP_TLS", mail.TLSMandatory),
		},
		Google: auth.GoogleConfig{
			ClientID:     os.Getenv("TONOTE_GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("TONOTE_GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("TONOTE_GOOGLE_REDIRECT_URL"),
		},
	}
	cfg.Auth.AppURL = env("TONOTE_APP_URL", a.AppURL)

	var err error
	if cfg.MigrateOnStart, err = boolEnv("TONOTE_MIGRATE", cfg.MigrateOnStart); err != nil {
		return Config{}, err
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"TONOTE_SESSION_TTL", &cfg.Auth.SessionTTL},
		{"TONOTE_OTP_TTL", &cfg.Auth.OTPTTL},
		{"TONOTE_OTP_COOLDOWN", &cfg.Auth.OTPCooldown},
		{"TONOTE_RESET_TTL", &cfg.Auth.ResetTTL},
	}
	for _, d := range durations {
		if *d.dst, err = durationEnv(d.key, *d.dst); err != nil {
			return Config{}, err
		}
	}
	if cfg.Auth.OTPMaxAttempts, err = intEnv("TONOTE_OTP_MAX_ATTEMPTS", cfg.Auth.OTPMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.SMTP.Port, err = intEnv("TONOTE_SMTP_PORT", 587); err != nil {
		return Config{}, err
	}

	if cfg.Google.RedirectURL == "" {
		cfg.Google.RedirectURL = "http://localhost:" + cfg.Port + "/api/auth/google/callback"
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("TONOTE_DATABASE_URL is required when TONOTE_STORAGE=postgres")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("TONOTE_STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}
	if c.Auth.OTPMaxAttempts < 1 {
		return errors.New("TONOTE_OTP_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := env(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := env(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return n, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := env(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}
