package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over file values and use the SECRETARY_ prefix with
// underscores for nesting (e.g. SECRETARY_DATABASE_URL,
// SECRETARY_SCHEDULER_TICK_INTERVAL).
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SECRETARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, and
	// database.url has no default, so bind it explicitly or env-only
	// deployments can never supply it.
	v.MustBindEnv("database.url")

	// The config file is optional; env-only deployments are the norm.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for everything that has a sensible one.
// Database.URL deliberately has no default: a missing URL should fail
// loudly at startup, not point at a surprise database.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.link_ttl", 10*time.Minute)

	v.SetDefault("scheduler.tick_interval", 30*time.Second)
	v.SetDefault("scheduler.grace_timeout", 10*time.Second)
	v.SetDefault("scheduler.max_concurrent_dispatches", 4)

	v.SetDefault("notifier.send_timeout", 10*time.Second)
}
