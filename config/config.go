// Package config provides configuration loading, validation and hot reload.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artpar/hopgate/domain/hop"
)

// Config is the root configuration structure.
type Config struct {
	BindAddress   string         `yaml:"bind_address"`   // listen address, read once at startup
	PublicAddress string         `yaml:"public_address"` // external host used by pages and the OpenSearch descriptor
	DefaultRoute  string         `yaml:"default_route"`  // fallback keyword, may be empty
	Groups        []GroupConfig  `yaml:"groups"`
	Delegate      DelegateConfig `yaml:"delegate"`
	Watch         WatchConfig    `yaml:"watch"`
	Database      DatabaseConfig `yaml:"database"`
	Logging       LoggingConfig  `yaml:"logging"`
	Metrics       MetricsConfig  `yaml:"metrics"`
}

// GroupConfig is one named collection of routes.
type GroupConfig struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Hidden      bool      `yaml:"hidden"`
	Routes      RouteList `yaml:"routes"`
}

// RouteConfig is a single keyword definition inside a group.
type RouteConfig struct {
	Keyword     string
	Template    string
	Exec        string
	MinArgs     int
	MaxArgs     *int // nil = unbounded
	Hidden      bool
	Description string
}

// RouteList holds a group's routes in document order. Route mappings decode
// through the yaml.Node API because a plain Go map would lose declaration
// order, which the keyword override policy depends on.
type RouteList []RouteConfig

// DelegateConfig bounds delegate program execution.
type DelegateConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// WatchConfig tunes the config file watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// DatabaseConfig configures the resolution hit log.
type DatabaseConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Path          string        `yaml:"path"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// routeDef is the mapping form of a route definition.
type routeDef struct {
	Template    string `yaml:"template"`
	Exec        string `yaml:"exec"`
	MinArgs     int    `yaml:"min_args"`
	MaxArgs     *int   `yaml:"max_args"`
	Hidden      bool   `yaml:"hidden"`
	Description string `yaml:"description"`
}

// UnmarshalYAML decodes a routes mapping while preserving key order.
// Anchored definitions referenced through YAML aliases are expanded here,
// so duplicates introduced via aliases go through the same last-wins
// insertion as plain duplicates.
func (l *RouteList) UnmarshalYAML(node *yaml.Node) error {
	resolved := node
	if resolved.Kind == yaml.AliasNode {
		resolved = resolved.Alias
	}
	if resolved.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: routes must be a mapping of keyword to definition", node.Line)
	}

	out := make(RouteList, 0, len(resolved.Content)/2)
	for i := 0; i+1 < len(resolved.Content); i += 2 {
		keyNode, valNode := resolved.Content[i], resolved.Content[i+1]

		var keyword string
		if err := keyNode.Decode(&keyword); err != nil {
			return fmt.Errorf("line %d: route keyword: %w", keyNode.Line, err)
		}

		rc, err := decodeRouteDef(valNode)
		if err != nil {
			return fmt.Errorf("route %q: %w", keyword, err)
		}
		rc.Keyword = keyword
		out = append(out, rc)
	}

	*l = out
	return nil
}

func decodeRouteDef(node *yaml.Node) (RouteConfig, error) {
	resolved := node
	if resolved.Kind == yaml.AliasNode {
		resolved = resolved.Alias
	}

	switch resolved.Kind {
	case yaml.ScalarNode:
		// Shorthand: a bare string is a static template.
		var template string
		if err := resolved.Decode(&template); err != nil {
			return RouteConfig{}, err
		}
		return RouteConfig{Template: template}, nil

	case yaml.MappingNode:
		var def routeDef
		if err := resolved.Decode(&def); err != nil {
			return RouteConfig{}, err
		}
		if def.Template != "" && def.Exec != "" {
			return RouteConfig{}, fmt.Errorf("template and exec are mutually exclusive")
		}
		if def.Template == "" && def.Exec == "" {
			return RouteConfig{}, fmt.Errorf("one of template or exec is required")
		}
		if def.MinArgs < 0 {
			return RouteConfig{}, fmt.Errorf("min_args must not be negative")
		}
		if def.MaxArgs != nil && *def.MaxArgs < 0 {
			return RouteConfig{}, fmt.Errorf("max_args must not be negative")
		}
		return RouteConfig{
			Template:    def.Template,
			Exec:        def.Exec,
			MinArgs:     def.MinArgs,
			MaxArgs:     def.MaxArgs,
			Hidden:      def.Hidden,
			Description: def.Description,
		}, nil

	default:
		return RouteConfig{}, fmt.Errorf("line %d: definition must be a string or a mapping", node.Line)
	}
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a configuration document from raw bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// RouteGroups converts the parsed groups into domain values.
func (c *Config) RouteGroups() []hop.Group {
	groups := make([]hop.Group, 0, len(c.Groups))
	for _, g := range c.Groups {
		routes := make([]hop.Route, 0, len(g.Routes))
		for _, rc := range g.Routes {
			r := hop.Route{
				Keyword:     rc.Keyword,
				Kind:        hop.KindTemplate,
				Template:    rc.Template,
				MinArgs:     rc.MinArgs,
				MaxArgs:     hop.MaxArgsUnbounded,
				Hidden:      rc.Hidden,
				Description: rc.Description,
			}
			if rc.Exec != "" {
				r.Kind = hop.KindExec
				r.Exec = rc.Exec
				r.Template = ""
			}
			if rc.MaxArgs != nil {
				r.MaxArgs = *rc.MaxArgs
			}
			routes = append(routes, r)
		}
		groups = append(groups, hop.Group{
			Name:        g.Name,
			Description: g.Description,
			Hidden:      g.Hidden,
			Routes:      routes,
		})
	}
	return groups
}

// CompileTable compiles the configured groups into a query-ready table.
func (c *Config) CompileTable() (*hop.Table, error) {
	return hop.Compile(c.RouteGroups(), c.DefaultRoute)
}

// applyEnvOverrides applies HOPGATE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOPGATE_BIND_ADDRESS"); v != "" {
		cfg.BindAddress = v
	}
	if v := os.Getenv("HOPGATE_PUBLIC_ADDRESS"); v != "" {
		cfg.PublicAddress = v
	}
	if v := os.Getenv("HOPGATE_DELEGATE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Delegate.Timeout = d
		}
	}
	if v := os.Getenv("HOPGATE_WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Watch.Debounce = d
		}
	}
	if v := os.Getenv("HOPGATE_DATABASE_ENABLED"); v != "" {
		cfg.Database.Enabled = parseBool(v)
	}
	if v := os.Getenv("HOPGATE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("HOPGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HOPGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("HOPGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.BindAddress == "" {
		cfg.BindAddress = "127.0.0.1:8080"
	}
	if cfg.PublicAddress == "" {
		cfg.PublicAddress = "localhost:8080"
	}
	if cfg.Delegate.Timeout == 0 {
		cfg.Delegate.Timeout = 5 * time.Second
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "hopgate.db"
	}
	if cfg.Database.BatchSize == 0 {
		cfg.Database.BatchSize = 64
	}
	if cfg.Database.FlushInterval == 0 {
		cfg.Database.FlushInterval = 10 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if cfg.Delegate.Timeout < 0 {
		return fmt.Errorf("delegate.timeout must not be negative")
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be json or console, got %q", cfg.Logging.Format)
	}

	return nil
}
