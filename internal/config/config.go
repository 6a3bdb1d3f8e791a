// Package config loads process configuration from environment variables.
// Secrets and tunables are parsed once in main and passed to constructors as
// explicit structs; no package reads the environment on its own.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/avolkov/website/internal/clientid"
	"github.com/avolkov/website/internal/magiclink"
	"github.com/avolkov/website/internal/ranking"
	"github.com/avolkov/website/internal/session"
)

// App identifies the process and its environment.
type App struct {
	Name    string `env:"APP_NAME" envDefault:"website"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
}

// IsProduction reports whether the app runs in production mode.
func (a App) IsProduction() bool { return a.Env == "production" }

// HTTP holds server listener settings.
type HTTP struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Database holds the Postgres connection string.
type Database struct {
	DSN string `env:"DATABASE_URL,required"`
}

// Redis holds the Redis connection string.
type Redis struct {
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

// Cookie holds the signing secrets shared by every cookie namespace.
// The first secret signs; all secrets verify, enabling rotation.
type Cookie struct {
	Secrets []string `env:"COOKIE_SECRETS,required" envSeparator:","`
	Secure  bool     `env:"COOKIE_SECURE" envDefault:"true"`
}

// MagicLink holds sign-in link settings.
type MagicLink struct {
	Secret string        `env:"MAGIC_LINK_SECRET,required"`
	TTL    time.Duration `env:"MAGIC_LINK_TTL" envDefault:"15m"`
}

// Config is the full process configuration.
type Config struct {
	App       App
	HTTP      HTTP
	Database  Database
	Redis     Redis
	Cookie    Cookie
	Session   session.Config
	ClientID  clientid.Config
	MagicLink MagicLink
	Postmark  magiclink.PostmarkConfig
	Ranking   ranking.Config
}

// Load reads .env if present, then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
