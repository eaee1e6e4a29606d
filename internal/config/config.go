package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the activities service.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	LogLevel        zerolog.Level
	SeedFile        string
	RedisURL        string
	NATSURL         string
	ChannelBase     string
	RateLimitMax    int
	RateLimitWindow time.Duration
	ShutdownTimeout time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ACTIVITIES")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Mergington Activities API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8000")
	v.SetDefault("log.level", "info")
	v.SetDefault("channel.base", "mergington:activities")
	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("shutdown.timeout", "5s")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(v.GetString("log.level"))))
	if err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}

	window, err := parseDuration(v.GetString("rate_limit.window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	shutdown, err := parseDuration(v.GetString("shutdown.timeout"), 5*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		LogLevel:        level,
		SeedFile:        strings.TrimSpace(v.GetString("seed.file")),
		RedisURL:        strings.TrimSpace(v.GetString("redis.url")),
		NATSURL:         strings.TrimSpace(v.GetString("nats.url")),
		ChannelBase:     strings.TrimSpace(v.GetString("channel.base")),
		RateLimitMax:    v.GetInt("rate_limit.max"),
		RateLimitWindow: window,
		ShutdownTimeout: shutdown,
	}

	if cfg.AppPort == "" {
		return Config{}, fmt.Errorf("app port must be provided")
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 30
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}

	return time.ParseDuration(raw)
}
