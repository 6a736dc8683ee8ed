// Package config loads plotcalc settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverFile   = "file"
)

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Plot    PlotConfig    `mapstructure:"plot"`
	Store   StoreConfig   `mapstructure:"store"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port    int `mapstructure:"port"`
	MCPPort int `mapstructure:"mcp_port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PlotConfig holds the defaults every new session starts from.
type PlotConfig struct {
	Points  int      `mapstructure:"points"`
	XMin    float64  `mapstructure:"x_min"`
	XMax    float64  `mapstructure:"x_max"`
	Initial []string `mapstructure:"initial"`
	Palette []string `mapstructure:"palette"`
	// Width and Height are the rendered image size in inches.
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

type StoreConfig struct {
	Driver  string        `mapstructure:"driver"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
	File    FileConfig    `mapstructure:"file"`
}

// FileConfig places one JSON file per session under Dir.
type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Environment variables that override the file.
var envOverrides = map[string]string{
	"PLOTCALC_PORT":           "server.port",
	"PLOTCALC_MCP_PORT":       "server.mcp_port",
	"PLOTCALC_LOG_LEVEL":      "log.level",
	"PLOTCALC_LOG_FORMAT":     "log.format",
	"PLOTCALC_POINTS":         "plot.points",
	"PLOTCALC_INITIAL":        "plot.initial",
	"PLOTCALC_STORE":          "store.driver",
	"PLOTCALC_LOCK_TTL":       "store.lock_ttl",
	"PLOTCALC_REDIS_ADDR":     "store.redis.addr",
	"PLOTCALC_REDIS_PASSWORD": "store.redis.password",
	"PLOTCALC_REDIS_DB":       "store.redis.db",
	"PLOTCALC_REDIS_PREFIX":   "store.redis.prefix",
	"PLOTCALC_REDIS_TTL":      "store.redis.ttl",
	"PLOTCALC_STORE_DIR":      "store.file.dir",
	"PLOTCALC_METRICS":        "metrics.enabled",
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080, MCPPort: 8081},
		Log:    LogConfig{Level: "info", Format: "text"},
		Plot: PlotConfig{
			Points:  domain.DefaultPoints,
			XMin:    domain.DefaultDomain.XMin,
			XMax:    domain.DefaultDomain.XMax,
			Initial: []string{"sin(x)"},
			Width:   8,
			Height:  6,
		},
		Store: StoreConfig{
			Driver:  DriverMemory,
			LockTTL: 30 * time.Second,
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads path (if non-empty and present), then applies environment overrides.
// A missing file is not an error: defaults apply.
func Load(path string) (Config, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			if raw == nil {
				raw = map[string]any{}
			}
		}
	}
	pruneNil(raw)
	applyEnv(raw, os.LookupEnv)

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ZeroFields:       true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(";"),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// pruneNil drops empty YAML sections so "plot:" alone keeps the defaults.
func pruneNil(m map[string]any) {
	for k, v := range m {
		switch child := v.(type) {
		case nil:
			delete(m, k)
		case map[string]any:
			pruneNil(child)
		}
	}
}

func applyEnv(raw map[string]any, lookup func(string) (string, bool)) {
	for env, path := range envOverrides {
		v, ok := lookup(env)
		if !ok || v == "" {
			continue
		}
		setPath(raw, strings.Split(path, "."), v)
	}
}

func setPath(m map[string]any, keys []string, v any) {
	if len(keys) == 1 {
		m[keys[0]] = v
		return
	}
	child, ok := m[keys[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		m[keys[0]] = child
	}
	setPath(child, keys[1:], v)
}

// Domain returns the configured default domain.
func (c Config) Domain() domain.Domain {
	return domain.Domain{XMin: c.Plot.XMin, XMax: c.Plot.XMax}
}

// PaletteColors converts the configured palette, or returns nil for the default one.
func (c Config) PaletteColors() []domain.Color {
	if len(c.Plot.Palette) == 0 {
		return nil
	}
	colors := make([]domain.Color, len(c.Plot.Palette))
	for i, p := range c.Plot.Palette {
		colors[i] = domain.Color(p)
	}
	return colors
}

// Validate checks values that would otherwise fail deep inside the service.
func (c Config) Validate() error {
	if c.Plot.Points <= 0 {
		return fmt.Errorf("plot.points must be positive, got %d", c.Plot.Points)
	}
	if err := domain.ValidatePoints(c.Plot.Points); err != nil {
		return fmt.Errorf("plot.points: %w", err)
	}
	if err := c.Domain().Validate(); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	if c.Plot.Width <= 0 || c.Plot.Height <= 0 {
		return fmt.Errorf("plot.width and plot.height must be positive")
	}
	for _, p := range c.Plot.Palette {
		if _, err := colorful.Hex(p); err != nil || len(p) != 7 {
			return fmt.Errorf("plot.palette: %q is not a #RRGGBB color", p)
		}
	}
	switch c.Store.Driver {
	case DriverMemory, DriverFile:
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}
