package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`

	ViewportWidth    int           `envconfig:"VIEWPORT_WIDTH" default:"1280"`
	ViewportHeight   int           `envconfig:"VIEWPORT_HEIGHT" default:"800"`
	AutosaveInterval time.Duration `envconfig:"AUTOSAVE_INTERVAL" default:"30s"`
	ExportDir        string        `envconfig:"EXPORT_DIR" default:"./data/exports"`

	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	MDNSEnabled  bool   `envconfig:"MDNS_ENABLED" default:"false"`
	MDNSInstance string `envconfig:"MDNS_INSTANCE" default:"driftboard"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.ViewportWidth <= 0 || cfg.ViewportHeight <= 0 {
		return nil, fmt.Errorf("invalid viewport %dx%d", cfg.ViewportWidth, cfg.ViewportHeight)
	}
	if cfg.AutosaveInterval <= 0 {
		return nil, fmt.Errorf("AUTOSAVE_INTERVAL must be positive, got %s", cfg.AutosaveInterval)
	}
	return &cfg, nil
}

// Origins splits ALLOWED_ORIGINS into its non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginHosts returns the allowed origins without their scheme, the form
// websocket origin patterns expect.
func (c *Config) OriginHosts() []string {
	origins := c.Origins()
	hosts := make([]string, len(origins))
	for i, o := range origins {
		_, host, found := strings.Cut(o, "://")
		if !found {
			host = o
		}
		hosts[i] = host
	}
	return hosts
}

// Level parses LOG_LEVEL, falling back to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
