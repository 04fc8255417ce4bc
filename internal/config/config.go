// Package config reads runtime settings from the environment and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config: everything the server and edenctl need at startup
type Config struct {
	Port string

	DBDriver string // "postgres" or "sqlite"
	DBDSN    string

	SessionSecret string
	JWTSecret     string
	JWTTTL        time.Duration

	UploadDir      string
	MaxUploadBytes int64

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	NotifyWait   time.Duration

	RedisAddr string

	PayMongoSecretKey string
	PayMongoBaseURL   string
	PublicBaseURL     string

	Release bool
}

// LoadDotenv loads .env from the current folder and its parents, so that running
// from cmd/server or the repo root behaves the same.
func LoadDotenv() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Overload(p)
		}
	}
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getenv("APP_PORT", "8080"),
		DBDriver:          getenv("DB_DRIVER", "postgres"),
		DBDSN:             os.Getenv("DB_DSN"),
		SessionSecret:     getenv("SESSION_SECRET", "dev_fallback_secret"),
		JWTSecret:         getenv("JWT_SECRET", "dev_fallback_jwt_secret"),
		UploadDir:         getenv("UPLOAD_DIR", "uploads"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPassword:      os.Getenv("SMTP_PASSWORD"),
		MailFrom:          getenv("MAIL_FROM", `"EDEN Store" <no-reply@eden.local>`),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		PayMongoSecretKey: os.Getenv("PAYMONGO_SECRET_KEY"),
		PayMongoBaseURL:   getenv("PAYMONGO_BASE_URL", "https://api.paymongo.com/v1"),
		PublicBaseURL:     getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		Release:           os.Getenv("GIN_MODE") == "release",
	}

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.NotifyWait, err = getDuration("NOTIFY_WAIT", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	maxUpload, err := getInt("MAX_UPLOAD_BYTES", 5<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is empty (check your .env)")
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}
	return cfg, nil
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
