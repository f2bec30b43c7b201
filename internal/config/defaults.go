package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/TonyXvr/DigitGuesser/internal/game"
)

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func validate(c *Config) error {
	if err := validateServerConfig(c.Server); err != nil {
		return err
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("jwt secret cannot be empty")
	}
	if c.Production() && c.Auth.JWTSecret == DevJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Auth.ExpiresDays < 1 {
		return errors.New("jwt expiry must be at least one day")
	}
	if c.Auth.CookieName == "" {
		return errors.New("cookie name cannot be empty")
	}
	if err := validateDatabaseConfig(c.Database); err != nil {
		return err
	}
	if c.Redis.DB < 0 {
		return errors.New("redis db must not be negative")
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	if c.RateLimit.GuessPerWindow < 0 || c.RateLimit.ChatPerWindow < 0 {
		return errors.New("rate limits must not be negative")
	}
	if err := validateDailyConfig(c.Daily); err != nil {
		return err
	}
	if c.Chat.Timeout <= 0 {
		return errors.New("chat timeout must be positive")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	return nil
}

func validateServerConfig(s ServerConfig) error {
	if s.Port == "" {
		return errors.New("server port cannot be empty")
	}
	if portNum, err := strconv.Atoi(s.Port); err != nil || portNum < 1 || portNum > 65535 {
		return errors.New("server port must be a valid number between 1 and 65535")
	}
	if s.ReadTimeout <= 0 {
		return errors.New("read timeout must be positive")
	}
	if s.WriteTimeout <= 0 {
		return errors.New("write timeout must be positive")
	}
	if s.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}

func validateDatabaseConfig(d DatabaseConfig) error {
	switch strings.ToLower(d.Driver) {
	case "sqlite", "sqlite3":
	case "postgres", "postgresql", "pgx":
		if d.URL == "" {
			return errors.New("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", d.Driver)
	}
	return nil
}

func validateDailyConfig(d DailyConfig) error {
	if d.Salt == "" {
		return errors.New("daily salt cannot be empty")
	}
	if d.Digits < game.MinDigits || d.Digits > game.MaxDigits {
		return fmt.Errorf("daily digits must be between %d and %d", game.MinDigits, game.MaxDigits)
	}
	if _, err := game.ParseDifficulty(d.Difficulty); err != nil {
		return fmt.Errorf("daily difficulty: %w", err)
	}
	return nil
}
