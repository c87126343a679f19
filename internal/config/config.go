package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Notifier  NotifierConfig  `mapstructure:"notifier" validate:"required"`
}

// ServerConfig contains the ops HTTP server and logging settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// RedisConfig contains the optional platform-link cache settings.
// An empty Addr disables the cache; the dispatcher then reads links
// straight from the database on every delivery.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	LinkTTL  time.Duration `mapstructure:"link_ttl" validate:"gte=0"`
}

// SchedulerConfig contains the reminder polling loop settings.
type SchedulerConfig struct {
	// TickInterval is how often due reminders are polled. It is also the
	// implicit retry backoff for failed deliveries.
	TickInterval time.Duration `mapstructure:"tick_interval" validate:"required,gt=0"`

	// GraceTimeout bounds how long Stop waits for in-flight dispatches
	// before abandoning them.
	GraceTimeout time.Duration `mapstructure:"grace_timeout" validate:"required,gt=0"`

	// MaxConcurrentDispatches bounds the per-tick dispatch fan-out.
	MaxConcurrentDispatches int `mapstructure:"max_concurrent_dispatches" validate:"required,gt=0"`
}

// NotifierConfig contains notification delivery settings.
type NotifierConfig struct {
	// SendTimeout bounds a single channel send attempt; a timed-out send
	// counts as a channel failure and triggers fallback.
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"required,gt=0"`
}
