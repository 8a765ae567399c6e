// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config collects everything cmd/server needs to wire the application.
type Config struct {
	Addr string `env:"ADDR" envDefault:":8080"`

	// Hosted platform (Postgres + auth + storage).
	DatabaseDSN     string `env:"DATABASE_DSN,required"`
	PlatformURL     string `env:"PLATFORM_URL,required"`
	PlatformAnonKey string `env:"PLATFORM_ANON_KEY,required"`

	// Object storage.
	StorageBucket     string `env:"STORAGE_BUCKET" envDefault:"wedding-photos"`
	StorageSignSecret string `env:"STORAGE_SIGN_SECRET,required"`

	// Session cookie signing key for the HTTP shell.
	SessionKey string `env:"SESSION_KEY,required"`

	// Service accounts for the passcode ladder, in priority order:
	// guest-all, test-all, test-invited, invited.
	GuestAllEmail    string `env:"ACCOUNT_GUEST_ALL_EMAIL,required"`
	TestAllEmail     string `env:"ACCOUNT_TEST_ALL_EMAIL,required"`
	TestInvitedEmail string `env:"ACCOUNT_TEST_INVITED_EMAIL,required"`
	InvitedEmail     string `env:"ACCOUNT_INVITED_EMAIL,required"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
