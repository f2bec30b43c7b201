// internal/config/config.go
//
// Server configuration.
// Order of precedence (last wins):
//   1. Built-in defaults.
//   2. TOML file named by CONFIG_FILE, if set.
//   3. Environment variables (a .env file is loaded by the caller via godotenv).

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Auth      AuthConfig      `toml:"auth"`
	Database  DatabaseConfig  `toml:"database"`
	Redis     RedisConfig     `toml:"redis"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Daily     DailyConfig     `toml:"daily"`
	Chat      ChatConfig      `toml:"chat"`
	Logging   LoggingConfig   `toml:"logging"`
	Sentry    SentryConfig    `toml:"sentry"`
}

type ServerConfig struct {
	Port            string        `toml:"port"`
	Host            string        `toml:"host"`
	ClientOrigin    string        `toml:"client_origin"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	Environment     string        `toml:"environment"` // "production" turns on Secure cookies
}

type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	ExpiresDays int    `toml:"expires_days"`
	CookieName  string `toml:"cookie_name"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"` // sqlite | postgres
	URL    string `toml:"url"`    // file path for sqlite (empty: ./data/digitguess.db), DSN for postgres
}

type RedisConfig struct {
	Addr       string        `toml:"addr"` // empty disables Redis
	Password   string        `toml:"password"`
	DB         int           `toml:"db"`
	SessionTTL time.Duration `toml:"session_ttl"`
}

type RateLimitConfig struct {
	GuessPerWindow int           `toml:"guess_per_window"`
	ChatPerWindow  int           `toml:"chat_per_window"`
	Window         time.Duration `toml:"window"`
}

type DailyConfig struct {
	Salt       string `toml:"salt"`
	Digits     int    `toml:"digits"`
	Difficulty string `toml:"difficulty"`
}

type ChatConfig struct {
	BaseURL string        `toml:"base_url"`
	APIKey  string        `toml:"api_key"`
	Model   string        `toml:"model"`
	Timeout time.Duration `toml:"timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

type SentryConfig struct {
	DSN         string `toml:"dsn"`
	Environment string `toml:"environment"`
}

// DevJWTSecret is the built-in signing key. It is refused in production.
const DevJWTSecret = "dev_secret_change_me"

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "5175",
			Host:            "0.0.0.0",
			ClientOrigin:    "http://localhost:5173",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Auth: AuthConfig{
			JWTSecret:   DevJWTSecret,
			ExpiresDays: 14,
			CookieName:  "digitguess_token",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
		},
		Redis: RedisConfig{
			SessionTTL: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			GuessPerWindow: 120,
			ChatPerWindow:  20,
			Window:         time.Minute,
		},
		Daily: DailyConfig{
			Salt:       "local_dev_salt",
			Digits:     4,
			Difficulty: "medium",
		},
		Chat: ChatConfig{
			BaseURL: "https://api.deepseek.com",
			Model:   "deepseek-chat",
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Sentry: SentryConfig{
			Environment: "development",
		},
	}
}

// Load builds the configuration from defaults, CONFIG_FILE and the environment.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnv(c *Config) {
	c.Server.Port = getEnvString("PORT", c.Server.Port)
	c.Server.Host = getEnvString("HOST", c.Server.Host)
	c.Server.ClientOrigin = getEnvString("CLIENT_ORIGIN", c.Server.ClientOrigin)
	c.Server.ReadTimeout = getEnvDuration("READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.Environment = getEnvString("APP_ENV", c.Server.Environment)

	c.Auth.JWTSecret = getEnvString("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.ExpiresDays = getEnvInt("JWT_EXPIRES_DAYS", c.Auth.ExpiresDays)
	c.Auth.CookieName = getEnvString("COOKIE_NAME", c.Auth.CookieName)

	c.Database.Driver = getEnvString("DB_DRIVER", c.Database.Driver)
	c.Database.URL = getEnvString("DATABASE_URL", c.Database.URL)

	c.Redis.Addr = getEnvString("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnvString("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)
	c.Redis.SessionTTL = getEnvDuration("SESSION_TTL", c.Redis.SessionTTL)

	c.RateLimit.GuessPerWindow = getEnvInt("GUESS_RATE_LIMIT", c.RateLimit.GuessPerWindow)
	c.RateLimit.ChatPerWindow = getEnvInt("CHAT_RATE_LIMIT", c.RateLimit.ChatPerWindow)
	c.RateLimit.Window = getEnvDuration("RATE_WINDOW", c.RateLimit.Window)

	c.Daily.Salt = getEnvString("DAILY_SALT", c.Daily.Salt)
	c.Daily.Digits = getEnvInt("DAILY_DIGITS", c.Daily.Digits)
	c.Daily.Difficulty = getEnvString("DAILY_DIFFICULTY", c.Daily.Difficulty)

	c.Chat.BaseURL = getEnvString("CHAT_BASE_URL", c.Chat.BaseURL)
	c.Chat.APIKey = getEnvString("CHAT_API_KEY", c.Chat.APIKey)
	c.Chat.Model = getEnvString("CHAT_MODEL", c.Chat.Model)
	c.Chat.Timeout = getEnvDuration("CHAT_TIMEOUT", c.Chat.Timeout)

	c.Logging.Level = getEnvString("LOG_LEVEL", c.Logging.Level)
	c.Logging.Pretty = getEnvBool("LOG_PRETTY", c.Logging.Pretty)

	c.Sentry.DSN = getEnvString("SENTRY_DSN", c.Sentry.DSN)
	c.Sentry.Environment = getEnvString("SENTRY_ENVIRONMENT", c.Sentry.Environment)
}

// Addr is host:port for the HTTP listener.
func (c *Config) Addr() string { return c.Server.Host + ":" + c.Server.Port }

// Production reports whether cookies should be Secure/SameSite=None.
func (c *Config) Production() bool { return c.Server.Environment == "production" }
