// Package config handles loading and saving cmap configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/cmap/config.yaml
//   - Data:    ~/.local/share/cmap/ (datasets named by relative catalog values)
//   - State:   ~/.local/state/cmap/ (last opened dataset)
//
// CMAP_CONFIG points at an alternative config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/conceptmap/pkg/detail"
	"github.com/vanderheijden86/conceptmap/pkg/eventloop"
	"github.com/vanderheijden86/conceptmap/pkg/export"
	"github.com/vanderheijden86/conceptmap/pkg/filter"
	"github.com/vanderheijden86/conceptmap/pkg/geometry"
	"github.com/vanderheijden86/conceptmap/pkg/layout"
	"github.com/vanderheijden86/conceptmap/pkg/model"
	"github.com/vanderheijden86/conceptmap/pkg/overlay"
	"github.com/vanderheijden86/conceptmap/pkg/query"
	"github.com/vanderheijden86/conceptmap/pkg/session"
)

const appName = "cmap"

// Dataset is one entry of the dataset switcher.
type Dataset struct {
	Label       string `yaml:"label"`
	Value       string `yaml:"value"` // path, URL or SQLite file
	Description string `yaml:"description,omitempty"`
}

// DetailConfig holds the zoom breaks and which break each node type needs.
type DetailConfig struct {
	Thresholds map[string]float64        `yaml:"thresholds,omitempty"`
	TypeLevels map[model.NodeType]string `yaml:"type_levels,omitempty"`
}

// FilterConfig controls the filter sidebar.
type FilterConfig struct {
	ExpertiseOrder []string `yaml:"expertise_order,omitempty"`
	Where          string   `yaml:"where,omitempty"` // CEL predicate ANDed into every pass
}

// LayoutConfig places the radial layout and sizes the viewport.
type LayoutConfig struct {
	CenterX float64 `yaml:"center_x,omitempty"`
	CenterY float64 `yaml:"center_y,omitempty"`
	Width   float64 `yaml:"width,omitempty"`
	Height  float64 `yaml:"height,omitempty"`
}

// OverlayConfig controls the cluster overlay.
type OverlayConfig struct {
	GroupPadding float64 `yaml:"group_padding,omitempty"`
	Eligibility  string  `yaml:"eligibility,omitempty"` // base, type or visible
	Hidden       bool    `yaml:"hidden,omitempty"`
}

// UIConfig holds terminal browser preferences.
type UIConfig struct {
	FPS int `yaml:"fps,omitempty"` // frame cap for overlay redraws
}

// Config is the top-level configuration for cmap.
type Config struct {
	DefaultDataset string        `yaml:"default_dataset,omitempty"`
	Datasets       []Dataset     `yaml:"datasets,omitempty"`
	Detail         DetailConfig  `yaml:"detail,omitempty"`
	Filters        FilterConfig  `yaml:"filters,omitempty"`
	Layout         LayoutConfig  `yaml:"layout,omitempty"`
	Overlay        OverlayConfig `yaml:"overlay,omitempty"`
	Styles         export.Styles `yaml:"styles,omitempty"`
	UI             UIConfig      `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with the stock palette, zoom breaks and
// dataset catalog.
func DefaultConfig() Config {
	return Config{
		DefaultDataset: "clusters.json",
		Datasets: []Dataset{
			{Label: "Clustered curriculum", Value: "clusters.json"},
			{Label: "Clustered curriculum 2", Value: "clusters2.json"},
			{Label: "Simple demo", Value: "simpledata.json"},
			{Label: "Dataset 1", Value: "data1.json"},
			{Label: "Dataset 2", Value: "data2.json"},
		},
		Detail: DetailConfig{
			Thresholds: detail.DefaultThresholds(),
			TypeLevels: detail.DefaultTypeLevels(),
		},
		Filters: FilterConfig{
			ExpertiseOrder: append([]string(nil), filter.DefaultExpertiseOrder...),
		},
		Layout: LayoutConfig{
			CenterX: layout.DefaultCenter.X,
			CenterY: layout.DefaultCenter.Y,
		},
		Overlay: OverlayConfig{
			GroupPadding: overlay.DefaultGroupPadding,
			Eligibility:  string(filter.PolicyBase),
		},
		Styles: export.DefaultStyles(),
		UI:     UIConfig{FPS: eventloop.DefaultFPS},
	}
}

// ConfigDir returns the XDG config directory for cmap.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the XDG data directory for cmap.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appName)
}

// StateDir returns the XDG state directory for cmap.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	if p := os.Getenv("CMAP_CONFIG"); p != "" {
		return expandHome(p)
	}
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. Values in the file are laid
// over DefaultConfig: maps are merged per key, lists are replaced.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Datasets {
		cfg.Datasets[i].Value = expandHome(cfg.Datasets[i].Value)
	}
	cfg.DefaultDataset = expandHome(cfg.DefaultDataset)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate rejects settings the engine cannot use.
func (c Config) Validate() error {
	for name, v := range c.Detail.Thresholds {
		if v <= 0 {
			return fmt.Errorf("%w: threshold %q must be positive, got %v", ErrInvalid, name, v)
		}
	}
	if c.Overlay.GroupPadding < 0 {
		return fmt.Errorf("%w: overlay.group_padding must not be negative", ErrInvalid)
	}
	if _, err := filter.ParsePolicy(c.Overlay.Eligibility); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	for i, d := range c.Datasets {
		if d.Value == "" {
			return fmt.Errorf("%w: dataset %d (%q) has no value", ErrInvalid, i, d.Label)
		}
	}
	return nil
}

// FindDataset returns the catalog entry whose label or value matches name,
// or nil.
func (c Config) FindDataset(name string) *Dataset {
	for i := range c.Datasets {
		if strings.EqualFold(c.Datasets[i].Label, name) || c.Datasets[i].Value == name {
			return &c.Datasets[i]
		}
	}
	return nil
}

// DefaultSource is the dataset opened when none is named: the configured
// default, else the first catalog entry.
func (c Config) DefaultSource() string {
	if c.DefaultDataset != "" {
		return c.DefaultDataset
	}
	if len(c.Datasets) > 0 {
		return c.Datasets[0].Value
	}
	return ""
}

// SessionOptions turns the config into session build options, compiling
// the filter expression on the way.
func (c Config) SessionOptions() (session.Options, error) {
	opts := session.DefaultOptions()
	if len(c.Detail.Thresholds) > 0 {
		opts.Table = detail.NewTable(c.Detail.Thresholds)
	}
	if len(c.Detail.TypeLevels) > 0 {
		opts.TypeLevels = detail.TypeLevels(c.Detail.TypeLevels)
	}
	if len(c.Filters.ExpertiseOrder) > 0 {
		opts.ExpertiseOrder = c.Filters.ExpertiseOrder
	}
	if len(c.Styles.Nodes) > 0 || len(c.Styles.Edges) > 0 {
		opts.Styles = c.Styles
	}
	if c.Layout.CenterX != 0 || c.Layout.CenterY != 0 {
		opts.Center = geometry.Point{X: c.Layout.CenterX, Y: c.Layout.CenterY}
	}
	opts.Width, opts.Height = c.Layout.Width, c.Layout.Height
	if c.Overlay.GroupPadding > 0 {
		opts.GroupPadding = c.Overlay.GroupPadding
	}

	policy, err := filter.ParsePolicy(c.Overlay.Eligibility)
	if err != nil {
		return opts, err
	}
	opts.Policy = policy

	q, err := query.Compile(c.Filters.Where)
	if err != nil {
		return opts, err
	}
	if q != nil {
		opts.Query = q
	}
	return opts, nil
}

// ResolvedValue expands ~ in a dataset value.
func (d Dataset) ResolvedValue() string {
	return expandHome(d.Value)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
