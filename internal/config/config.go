package config

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/pointdash/pointdash/internal/engine"
	"github.com/pointdash/pointdash/internal/logging"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	DatabaseURL    string `envconfig:"DATABASE_URL" default:"sqlite://./data/pointdash.db"`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	HistoryLimit   int    `envconfig:"HISTORY_LIMIT" default:"100"`

	Graph GraphConfig `envconfig:"GRAPH"`
}

// GraphConfig holds the server-side defaults for every live graph view.
type GraphConfig struct {
	ScaleMode            string  `envconfig:"SCALE_MODE" default:"auto"`
	SymlogThreshold      float64 `envconfig:"SYMLOG_THRESHOLD" default:"1e6"`
	ZoomMin              float64 `envconfig:"ZOOM_MIN" default:"0.5"`
	ZoomMax              float64 `envconfig:"ZOOM_MAX" default:"40"`
	DomainPaddingPercent float64 `envconfig:"DOMAIN_PADDING_PERCENT" default:"5"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginHosts returns the allowed origins as host patterns for the websocket
// handshake, which matches on host only.
func (c *Config) OriginHosts() []string {
	origins := c.Origins()
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}

func (c *Config) Level() slog.Level {
	return logging.ParseLevel(c.LogLevel)
}

// Options converts the graph settings to engine options on top of the engine
// defaults.
func (g GraphConfig) Options() engine.Options {
	opts := engine.DefaultOptions()
	opts.ScaleMode = engine.ScaleMode(strings.ToLower(g.ScaleMode))
	opts.SymlogThreshold = g.SymlogThreshold
	opts.ZoomExtent = engine.ZoomExtent{Min: g.ZoomMin, Max: g.ZoomMax}
	opts.DomainPaddingPercent = g.DomainPaddingPercent
	return opts
}
