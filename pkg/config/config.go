package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"layerctl/pkg/layer"
)

// Config holds the application configuration.
type Config struct {
	Control ControlConfig `yaml:"control"`
	Map     MapConfig     `yaml:"map"`
	Layers  CatalogConfig `yaml:"layers"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// ControlConfig holds the layer control settings.
type ControlConfig struct {
	Collapsed       bool     `yaml:"collapsed"`
	AutoZIndex      bool     `yaml:"auto_z_index"`
	ExclusiveGroups []string `yaml:"exclusive_groups"`
	GroupCheckboxes bool     `yaml:"group_checkboxes"`
}

// MapConfig holds the initial viewport of the map surface.
type MapConfig struct {
	CenterLat float64 `yaml:"center_lat"`
	CenterLon float64 `yaml:"center_lon"`
	Zoom      float64 `yaml:"zoom"`
}

// CatalogConfig lists the layers offered by the control.
type CatalogConfig struct {
	Base     []LayerSpec `yaml:"base"`
	Overlays []GroupSpec `yaml:"overlays"`
}

// GroupSpec is an overlay group. An empty name holds ungrouped overlays.
type GroupSpec struct {
	Name   string      `yaml:"name"`
	Layers []LayerSpec `yaml:"layers"`
}

// LayerSpec describes one layer of the catalog.
type LayerSpec struct {
	Name    string               `yaml:"name"`
	Kind    string               `yaml:"kind"`
	URL     string               `yaml:"url"`
	Params  map[string]any       `yaml:"params,omitempty"`
	MinZoom *float64             `yaml:"min_zoom,omitempty"`
	MaxZoom *float64             `yaml:"max_zoom,omitempty"`
	Filter  *layer.FilterOptions `yaml:"filter,omitempty"`
	Active  bool                 `yaml:"active,omitempty"` // shown on the map at startup
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string   `yaml:"address"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	WSPingPeriod Duration `yaml:"ws_ping_period"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	Events   LogSettings `yaml:"events"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// EnvLogLevel overrides the server log level when set.
const EnvLogLevel = "LAYERCTL_LOG_LEVEL"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Control: ControlConfig{
			Collapsed:       true,
			AutoZIndex:      true,
			ExclusiveGroups: []string{"Hydrography"},
		},
		Map: MapConfig{
			CenterLat: 51.505,
			CenterLon: -0.09,
			Zoom:      10,
		},
		Layers: CatalogConfig{
			Base: []LayerSpec{
				{
					Name:   "Streets",
					Kind:   string(layer.KindTile),
					URL:    "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
					Active: true,
				},
				{
					Name: "Topography",
					Kind: string(layer.KindTile),
					URL:  "https://tile.opentopomap.org/{z}/{x}/{y}.png",
				},
			},
			Overlays: []GroupSpec{
				{
					Name: "Hydrography",
					Layers: []LayerSpec{
						{Name: "Rivers", Kind: string(layer.KindVector), URL: "data/rivers.geojson", MinZoom: layer.Zoom(6)},
						{Name: "Lakes", Kind: string(layer.KindVector), URL: "data/lakes.geojson"},
					},
				},
				{
					Name: "Infrastructure",
					Layers: []LayerSpec{
						{
							Name: "Roads",
							Kind: string(layer.KindWMS),
							URL:  "https://example.org/geoserver/wms",
							Params: map[string]any{
								"layers": "infra:roads",
								"format": "image/png",
							},
							MinZoom: layer.Zoom(8),
							MaxZoom: layer.Zoom(18),
							Filter: &layer.FilterOptions{
								Values:         []string{"motorway", "primary", "secondary"},
								TargetProperty: "cql_filter",
								Template:       "class='{0}'",
								NullPrompt:     "All roads",
							},
						},
					},
				},
			},
		},
		Server: ServerConfig{
			Address:      "localhost:1921",
			ReadTimeout:  Duration(15 * time.Second),
			WriteTimeout: Duration(15 * time.Second),
			WSPingPeriod: Duration(30 * time.Second),
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
			Events: LogSettings{
				Path:  "./logs/events.log",
				Level: "INFO",
			},
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, values from the file are merged over the defaults and the
// file is left untouched.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decodeOver(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	// Env overrides are never written back to disk.
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Log.Server.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeOver merges data over cfg. A file that declares a layers section owns
// the whole catalog, so the default layers are dropped before decoding.
func decodeOver(data []byte, cfg *Config) error {
	var sections struct {
		Layers *yaml.Node `yaml:"layers"`
	}
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return err
	}
	if sections.Layers != nil {
		cfg.Layers = CatalogConfig{}
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the catalog and viewport for values the control cannot use.
func (c *Config) Validate() error {
	if c.Map.Zoom < 0 {
		return fmt.Errorf("invalid map zoom %v: must not be negative", c.Map.Zoom)
	}
	if c.Map.CenterLat < -90 || c.Map.CenterLat > 90 {
		return fmt.Errorf("invalid center_lat %v", c.Map.CenterLat)
	}

	seen := make(map[string]bool)
	check := func(where string, s LayerSpec) error {
		if s.Name == "" {
			return fmt.Errorf("%s: layer without name", where)
		}
		if seen[s.Name] {
			return fmt.Errorf("%s: duplicate layer name '%s'", where, s.Name)
		}
		seen[s.Name] = true
		switch layer.Kind(s.Kind) {
		case layer.KindTile, layer.KindWMS, layer.KindVector:
		default:
			return fmt.Errorf("%s: layer '%s' has unknown kind '%s'", where, s.Name, s.Kind)
		}
		if s.MinZoom != nil && s.MaxZoom != nil && *s.MinZoom > *s.MaxZoom {
			return fmt.Errorf("%s: layer '%s' has min_zoom above max_zoom", where, s.Name)
		}
		if f := s.Filter; f != nil && f.TargetProperty == "" {
			return fmt.Errorf("%s: layer '%s' filter has no target_property", where, s.Name)
		}
		return nil
	}

	for _, s := range c.Layers.Base {
		if err := check("base", s); err != nil {
			return err
		}
	}
	for _, g := range c.Layers.Overlays {
		for _, s := range g.Layers {
			if err := check(fmt.Sprintf("group '%s'", g.Name), s); err != nil {
				return err
			}
		}
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# layerctl Configuration
# ---------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
# Filter templates substitute the selected value for the first {0}.
# Omitted settings keep their defaults. A layers section replaces the whole
# default catalog, base layers included.

`)
	data = append(header, data...)

	reKind := regexp.MustCompile(`(?m)^(\s+)kind:`)
	kinds := strings.Join([]string{string(layer.KindTile), string(layer.KindWMS), string(layer.KindVector)}, ", ")
	data = reKind.ReplaceAll(data, []byte("${1}# Options: "+kinds+"\n${1}kind:"))

	reLevel := regexp.MustCompile(`(?m)^(\s+)level:`)
	data = reLevel.ReplaceAll(data, []byte("${1}# Options: DEBUG, TRACE, INFO, WARN, ERROR\n${1}level:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}
