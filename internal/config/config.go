// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultJWTSecret     = "your-secret-key-change-in-production"
	defaultAdminPassword = "Admin#12345"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	AWS         AWSConfig
	Email       EmailConfig
	Realtime    RealtimeConfig
	Session     SessionConfig
	RateLimit   RateLimitConfig
	Log         LogConfig
	I18n        I18nConfig
	Frontend    FrontendConfig
	Uploads     UploadsConfig
	Admin       AdminConfig
}

// AdminConfig is the account seeded on first start.
type AdminConfig struct {
	Email    string
	Password string
}

type FrontendConfig struct {
	BaseURL string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Addr is the listen address. Host is only used for logging and links, so
// the server binds on all interfaces.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort("", s.Port)
}

type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	LogLevel     string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type EmailConfig struct {
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	FromEmail     string
	FromName      string
	Notifications bool // mirror in-app notifications to email
}

type RealtimeConfig struct {
	SendBuffer     int
	AllowedOrigins []string
}

type SessionConfig struct {
	IdleTimeout time.Duration
}

type RateLimitConfig struct {
	Enabled        bool
	RequestsPerSec float64
	Burst          int
	AuthPerMinute  int
}

type LogConfig struct {
	Level  string
	Format string // text or json
}

type I18nConfig struct {
	DefaultLocale string
}

type UploadsConfig struct {
	Dir          string
	MaxSizeBytes int64
}

// Load reads configuration from the environment, after applying an optional
// .env file. Malformed values are reported rather than silently replaced.
func Load() (*Config, error) {
	_ = godotenv.Load()

	e := &envReader{}
	cfg := &Config{
		Environment: e.Str("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         e.Str("SERVER_PORT", "5000"),
			Host:         e.Str("SERVER_HOST", "localhost"),
			ReadTimeout:  e.Seconds("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: e.Seconds("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  e.Seconds("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:       e.Str("DB_DRIVER", "postgres"),
			Host:         e.Str("DB_HOST", "localhost"),
			Port:         e.Str("DB_PORT", "5432"),
			User:         e.Str("DB_USER", "postgres"),
			Password:     e.Str("DB_PASSWORD", ""),
			Database:     e.Str("DB_NAME", "agriconnect"),
			SSLMode:      e.Str("DB_SSL_MODE", "disable"),
			SQLitePath:   e.Str("DB_PATH", "agriconnect.db"),
			MaxOpenConns: e.Int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: e.Int("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  e.Seconds("DB_MAX_LIFETIME", 300),
			LogLevel:     e.Str("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:       e.Str("JWT_SECRET", defaultJWTSecret),
			AccessTokenTTL:  e.Int("JWT_ACCESS_TTL", 24),
			RefreshTokenTTL: e.Int("JWT_REFRESH_TTL", 24*7),
		},
		AWS: AWSConfig{
			Region:          e.Str("AWS_REGION", "us-east-1"),
			AccessKeyID:     e.Str("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: e.Str("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        e.Str("AWS_S3_BUCKET", "agriconnect-product-images"),
			CloudFrontURL:   e.Str("AWS_CLOUDFRONT_URL", ""),
		},
		Email: EmailConfig{
			SMTPHost:      e.Str("SMTP_HOST", ""),
			SMTPPort:      e.Str("SMTP_PORT", "587"),
			SMTPUsername:  e.Str("SMTP_USERNAME", ""),
			SMTPPassword:  e.Str("SMTP_PASSWORD", ""),
			FromEmail:     e.Str("FROM_EMAIL", "noreply@agriconnect.local"),
			FromName:      e.Str("FROM_NAME", "AgriConnect"),
			Notifications: e.Bool("EMAIL_NOTIFICATIONS", false),
		},
		Realtime: RealtimeConfig{
			SendBuffer:     e.Int("REALTIME_SEND_BUFFER", 32),
			AllowedOrigins: e.List("REALTIME_ALLOWED_ORIGINS"),
		},
		Session: SessionConfig{
			IdleTimeout: e.Duration("SESSION_IDLE_TIMEOUT", 15*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled:        e.Bool("RATE_LIMIT_ENABLED", true),
			RequestsPerSec: e.Float("RATE_LIMIT_RPS", 10),
			Burst:          e.Int("RATE_LIMIT_BURST", 20),
			AuthPerMinute:  e.Int("RATE_LIMIT_AUTH_PER_MINUTE", 10),
		},
		Log: LogConfig{
			Level:  e.Str("LOG_LEVEL", "info"),
			Format: e.Str("LOG_FORMAT", "text"),
		},
		I18n: I18nConfig{
			DefaultLocale: e.Str("DEFAULT_LOCALE", "en"),
		},
		Frontend: FrontendConfig{
			BaseURL: e.Str("FRONTEND_BASE_URL", "http://localhost:5173"),
		},
		Uploads: UploadsConfig{
			Dir:          e.Str("UPLOADS_DIR", "./uploads"),
			MaxSizeBytes: int64(e.Int("UPLOADS_MAX_SIZE_MB", 5)) << 20,
		},
		Admin: AdminConfig{
			Email:    e.Str("ADMIN_EMAIL", "admin@agriconnect.local"),
			Password: e.Str("ADMIN_PASSWORD", defaultAdminPassword),
		},
	}

	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	prod := c.Environment == "production"

	if prod && c.JWT.SecretKey == defaultJWTSecret {
		errs = append(errs, errors.New("JWT secret key must be changed in production"))
	}
	if prod && c.Admin.Password == defaultAdminPassword {
		errs = append(errs, errors.New("admin password must be changed in production"))
	}

	switch c.Database.Driver {
	case "postgres":
		if prod && c.Database.Password == "" {
			errs = append(errs, errors.New("database password is required in production"))
		}
	case "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}

	if c.Session.IdleTimeout <= 0 {
		errs = append(errs, errors.New("session idle timeout must be positive"))
	}
	if c.Log.Format != "" && c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unsupported log format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// envReader looks up variables and collects parse errors so Load can report
// all of them together.
type envReader struct {
	errs []error
}

func (e *envReader) lookup(key string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	return value, value != ""
}

func (e *envReader) Str(key, def string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return def
}

func parseEnv[T any](e *envReader, key string, def T, parse func(string) (T, error)) T {
	raw, ok := e.lookup(key)
	if !ok {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid value %q", key, raw))
		return def
	}
	return v
}

func (e *envReader) Int(key string, def int) int {
	return parseEnv(e, key, def, strconv.Atoi)
}

func (e *envReader) Float(key string, def float64) float64 {
	return parseEnv(e, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func (e *envReader) Bool(key string, def bool) bool {
	return parseEnv(e, key, def, func(s string) (bool, error) { return strconv.ParseBool(strings.ToLower(s)) })
}

func (e *envReader) Duration(key string, def time.Duration) time.Duration {
	return parseEnv(e, key, def, time.ParseDuration)
}

// Seconds reads a whole number of seconds.
func (e *envReader) Seconds(key string, def int) time.Duration {
	return time.Duration(e.Int(key, def)) * time.Second
}

func (e *envReader) List(key string) []string {
	raw, _ := e.lookup(key)
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
