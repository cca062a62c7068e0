package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/conceptmap/pkg/filter"
	"github.com/vanderheijden86/conceptmap/pkg/model"
	"github.com/vanderheijden86/conceptmap/pkg/overlay"
	"github.com/vanderheijden86/conceptmap/pkg/session"
	"github.com/vanderheijden86/conceptmap/pkg/testutil"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DefaultSource() != "clusters.json" {
		t.Errorf("expected default dataset clusters.json, got %q", cfg.DefaultSource())
	}
	if len(cfg.Datasets) != 5 {
		t.Errorf("expected 5 catalog entries, got %d", len(cfg.Datasets))
	}
	if cfg.Detail.Thresholds["detail"] != 1.65 {
		t.Errorf("expected detail threshold 1.65, got %v", cfg.Detail.Thresholds["detail"])
	}
	if cfg.Overlay.GroupPadding != overlay.DefaultGroupPadding {
		t.Errorf("expected group padding %v, got %v", overlay.DefaultGroupPadding, cfg.Overlay.GroupPadding)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.DefaultDataset != "clusters.json" {
		t.Errorf("expected default config, got dataset %q", cfg.DefaultDataset)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
default_dataset: ~/maps/media.json
datasets:
  - label: Media
    value: ~/maps/media.json
  - label: Remote
    value: https://example.org/map.json

detail:
  thresholds:
    detail: 2.0

filters:
  where: 'kind != "term"'

overlay:
  group_padding: 80
  eligibility: visible

styles:
  nodes:
    topic:
      color: "#ffffff"
      size: 90
`)
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	home, _ := os.UserHomeDir()
	want := filepath.Join(home, "maps/media.json")
	if cfg.Datasets[0].Value != want || cfg.DefaultDataset != want {
		t.Errorf("expected expanded path %q, got %q / %q", want, cfg.Datasets[0].Value, cfg.DefaultDataset)
	}
	if len(cfg.Datasets) != 2 {
		t.Errorf("catalog should be replaced, got %d entries", len(cfg.Datasets))
	}
	// Thresholds merge over the defaults.
	if cfg.Detail.Thresholds["detail"] != 2.0 || cfg.Detail.Thresholds["topic"] != 1.0 {
		t.Errorf("thresholds = %v", cfg.Detail.Thresholds)
	}
	topic := cfg.Styles.Nodes[model.TypeTopic]
	if topic.Color != "#ffffff" || topic.Size != 90 {
		t.Errorf("topic style = %+v", topic)
	}
	if _, ok := cfg.Styles.Nodes[model.TypeArea]; !ok {
		t.Error("area style should survive a partial styles section")
	}

	opts, err := cfg.SessionOptions()
	if err != nil {
		t.Fatalf("SessionOptions: %v", err)
	}
	if opts.Policy != filter.PolicyVisible {
		t.Errorf("policy = %q", opts.Policy)
	}
	if opts.GroupPadding != 80 {
		t.Errorf("group padding = %v", opts.GroupPadding)
	}
	if opts.Query == nil {
		t.Fatal("where clause was not compiled")
	}
	if opts.Query.Match(&model.Node{ID: "x", Type: model.TypeTerm}) {
		t.Error("query should reject terms")
	}
	if opts.Table.CurrentDetail(1.9) != "detail" {
		t.Errorf("threshold table ignores overrides: %q", opts.Table.CurrentDetail(1.9))
	}
	if opts.Styles.Size(model.TypeTopic) != 90 {
		t.Errorf("styles not carried: size %v", opts.Styles.Size(model.TypeTopic))
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "datasets: [unclosed\n")
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFrom_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative threshold", "detail:\n  thresholds:\n    topic: -1\n"},
		{"unknown policy", "overlay:\n  eligibility: everything\n"},
		{"negative padding", "overlay:\n  group_padding: -5\n"},
		{"empty dataset value", "datasets:\n  - label: Broken\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.content))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestSessionOptions_BadQuery(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Filters.Where = "kind +"
	if _, err := cfg.SessionOptions(); err == nil {
		t.Error("expected a compile error")
	}
}

func TestWhereClauseFiltersSession(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "filters:\n  where: 'label != \"Geometry\" && kind != \"term\"'\n"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	opts, err := cfg.SessionOptions()
	if err != nil {
		t.Fatalf("SessionOptions: %v", err)
	}
	s, err := session.Build(testutil.Math(), overlay.NewSVGSurface(1300, 840, ""), overlay.NewManualScheduler(), opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer s.Destroy()

	res := s.Result()
	if !res.Nodes["algebra"] {
		t.Error("algebra should pass the where clause")
	}
	if res.Nodes["geometry"] {
		t.Error("geometry should be filtered out by the where clause")
	}
}

func TestSessionOptions_Defaults(t *testing.T) {
	opts, err := DefaultConfig().SessionOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Query != nil {
		t.Error("empty where clause should leave Query nil")
	}
	if opts.Policy != filter.PolicyBase {
		t.Errorf("policy = %q", opts.Policy)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.DefaultDataset = "/data/media.json"
	cfg.Datasets = append(cfg.Datasets, Dataset{Label: "Media", Value: "/data/media.json"})
	cfg.Overlay.Hidden = true

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.DefaultDataset != "/data/media.json" {
		t.Errorf("default dataset = %q", loaded.DefaultDataset)
	}
	if len(loaded.Datasets) != 6 {
		t.Errorf("expected 6 datasets, got %d", len(loaded.Datasets))
	}
	if !loaded.Overlay.Hidden {
		t.Error("overlay.hidden lost")
	}
	if got := loaded.Styles.Edges[model.RelPrerequisite].Dash; len(got) != 2 || got[0] != 8 {
		t.Errorf("prerequisite dash = %v", got)
	}
}

func TestFindDataset(t *testing.T) {
	cfg := DefaultConfig()
	if d := cfg.FindDataset("simple demo"); d == nil || d.Value != "simpledata.json" {
		t.Errorf("lookup by label failed: %+v", d)
	}
	if d := cfg.FindDataset("data2.json"); d == nil || d.Label != "Dataset 2" {
		t.Errorf("lookup by value failed: %+v", d)
	}
	if cfg.FindDataset("nope") != nil {
		t.Error("expected nil for unknown dataset")
	}
}

func TestDefaultSource_FallsBackToFirstEntry(t *testing.T) {
	cfg := Config{Datasets: []Dataset{{Label: "Only", Value: "only.json"}}}
	if cfg.DefaultSource() != "only.json" {
		t.Errorf("DefaultSource = %q", cfg.DefaultSource())
	}
	if (Config{}).DefaultSource() != "" {
		t.Error("empty config should have no source")
	}
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		input    string
		expected string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"/absolute", "/absolute"},
		{"relative", "relative"},
	}
	for _, tt := range tests {
		if got := expandHome(tt.input); got != tt.expected {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestConfigPath_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv("CMAP_CONFIG", path)
	if got := ConfigPath(); got != path {
		t.Errorf("ConfigPath = %q, want %q", got, path)
	}
}

func TestConfigDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("CMAP_CONFIG", "")
	if got := ConfigDir(); got != filepath.Join(dir, "cmap") {
		t.Errorf("ConfigDir = %q", got)
	}
	if got := ConfigPath(); got != filepath.Join(dir, "cmap", "config.yaml") {
		t.Errorf("ConfigPath = %q", got)
	}
}

func TestDataDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	if got := DataDir(); got != filepath.Join(dir, "cmap") {
		t.Errorf("DataDir = %q", got)
	}
}

func TestStateDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)
	if got := StateDir(); got != filepath.Join(dir, "cmap") {
		t.Errorf("StateDir = %q", got)
	}
}
