package confs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the runtime configuration read from the environment.
type Config struct {
	AppEnv string `validate:"required,oneof=development test production"`
	Port   string `validate:"required,numeric"`

	Database DatabaseConfig
	Auth     AuthConfig
	Upload   UploadConfig
	Logger   LoggerSettings

	CORSOrigins        []string `validate:"required,min=1"`
	RateLimitRPS       int      `validate:"min=1"`
	RateLimitBurst     int      `validate:"min=1"`
	UsageFlushInterval time.Duration

	AdminEmail    string `validate:"omitempty,email"`
	AdminPassword string
}

type DatabaseConfig struct {
	Driver     string `validate:"required,oneof=postgres sqlite"`
	URL        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SQLitePath string
	LogLevel   string `validate:"oneof=silent error warn info"`
}

type AuthConfig struct {
	JWTSecret  string        `validate:"required"`
	SessionTTL time.Duration `validate:"required"`
}

type UploadConfig struct {
	Dir          string   `validate:"required"`
	MaxBytes     int64    `validate:"min=1"`
	AllowedTypes []string `validate:"required,min=1"`
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool { return c.AppEnv == EnvProduction }

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string { return "0.0.0.0:" + c.Port }

// LoadConfig loads environment variables from a .env file if present,
// then reads and validates the process environment.
func LoadConfig() (*Config, error) {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not load .env: %v", err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	r := &reader{lookup: lookup}

	cfg := &Config{
		AppEnv: r.str("APP_ENV", EnvDevelopment),
		Port:   r.str("PORT", "3536"),
		Database: DatabaseConfig{
			Driver:     r.str("DB_DRIVER", DriverPostgres),
			URL:        r.str("DB_URL", ""),
			Host:       r.str("DB_HOST", ""),
			Port:       r.str("DB_PORT", "5432"),
			User:       r.str("DB_USER", ""),
			Password:   r.str("DB_PASSWORD", ""),
			Name:       r.str("DB_NAME", ""),
			SQLitePath: r.str("SQLITE_PATH", "data/starter.db"),
			LogLevel:   r.str("DB_LOG_LEVEL", "warn"),
		},
		Auth: AuthConfig{
			JWTSecret:  r.str("JWT_SECRET", ""),
			SessionTTL: r.duration("SESSION_TTL", 7*24*time.Hour),
		},
		Upload: UploadConfig{
			Dir:      r.str("UPLOAD_DIR", "uploads"),
			MaxBytes: r.int64("UPLOAD_MAX_BYTES", 10<<20),
			AllowedTypes: r.list("UPLOAD_ALLOWED_TYPES", []string{
				"image/png", "image/jpeg", "image/gif", "image/webp",
				"application/pdf", "text/csv", "text/plain",
			}),
		},
		Logger: LoggerSettings{
			LogLevel:   r.str("LOG_LEVEL", LogLevelInfo),
			LogType:    r.str("LOG_TYPE", LogTypeConsole),
			FilePath:   r.str("LOG_FILE", ""),
			MaxSize:    r.int("LOG_MAX_SIZE", 10),
			MaxBackups: r.int("LOG_MAX_BACKUPS", 3),
			MaxAge:     r.int("LOG_MAX_AGE", 28),
		},
		RateLimitRPS:       r.int("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     r.int("RATE_LIMIT_BURST", 10),
		UsageFlushInterval: r.duration("USAGE_FLUSH_INTERVAL", time.Minute),
		AdminEmail:         strings.ToLower(r.str("ADMIN_EMAIL", "")),
		AdminPassword:      r.str("ADMIN_PASSWORD", ""),
	}

	defaultOrigins := []string{"*"}
	if cfg.AppEnv == EnvProduction {
		defaultOrigins = nil
	}
	cfg.CORSOrigins = r.list("CORS_ORIGINS", defaultOrigins)

	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return err
	}

	if c.IsProduction() {
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		for _, o := range c.CORSOrigins {
			if o == "*" {
				return fmt.Errorf("CORS_ORIGINS must list explicit origins in production")
			}
		}
	}

	if c.Database.Driver == DriverPostgres && c.Database.URL == "" {
		d := c.Database
		if d.Host == "" || d.Port == "" || d.User == "" || d.Password == "" || d.Name == "" {
			return fmt.Errorf("missing required database configuration: DB_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
		}
	}
	if c.AdminEmail != "" && len(c.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters when ADMIN_EMAIL is set")
	}
	return nil
}

// reader collects the first parse error so FromEnv can report it once.
type reader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}

func (r *reader) int64(key string, def int64) int64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return d
}

func (r *reader) list(key string, def []string) []string {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (r *reader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid value for %s: %w", key, err)
	}
}
