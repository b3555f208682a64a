package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Feed      FeedConfig      `mapstructure:"feed"      validate:"required"`
	Catalog   CatalogConfig   `mapstructure:"catalog"   validate:"required"`
	Hydration HydrationConfig `mapstructure:"hydration" validate:"required"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// FeedConfig tunes the scheduling engine.
type FeedConfig struct {
	// TargetSize bounds ready + preparing cards (the lookahead window).
	TargetSize int `mapstructure:"target_size" validate:"required,gt=0,lte=50"`
}

// CatalogConfig locates the card catalog database.
type CatalogConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// HydrationConfig configures the excerpt service client.
type HydrationConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// Timeout of zero disables client-side timeouts; a hung hydration call
	// then holds one lookahead slot indefinitely.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}
