// Package datasource turns the dataset argument a user types (a catalog
// label, a file path, an http(s) URL or a SQLite file) into a Source and
// loads it. It is the only place that touches the filesystem or network
// on behalf of a session.
package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/conceptmap/pkg/config"
)

// Kind identifies how a source is read.
type Kind string

const (
	KindFile   Kind = "file"
	KindURL    Kind = "url"
	KindSQLite Kind = "sqlite"
	KindInline Kind = "inline"
)

var (
	ErrNoDataset  = errors.New("no dataset named and no default configured")
	ErrNotFound   = errors.New("dataset not found")
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// Source is a resolved dataset location.
type Source struct {
	Kind     Kind   `json:"kind"`
	Label    string `json:"label,omitempty"`
	Location string `json:"location,omitempty"` // absolute path or URL
	Data     []byte `json:"-"`                  // inline payload
}

// String returns a human-readable description.
func (s Source) String() string {
	name := s.Location
	if s.Kind == KindInline {
		name = fmt.Sprintf("%d bytes", len(s.Data))
	}
	if s.Label != "" && s.Label != s.Location {
		return fmt.Sprintf("%s (%s: %s)", s.Label, s.Kind, name)
	}
	return fmt.Sprintf("%s: %s", s.Kind, name)
}

// Watchable reports whether the source is a local file a watcher can
// follow.
func (s Source) Watchable() bool {
	return s.Kind == KindFile || s.Kind == KindSQLite
}

// Inline wraps an uploaded document.
func Inline(label string, data []byte) Source {
	return Source{Kind: KindInline, Label: label, Data: data}
}

// Classify guesses the kind of a dataset value from its shape.
func Classify(value string) Kind {
	lower := strings.ToLower(value)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return KindURL
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return KindSQLite
	default:
		return KindFile
	}
}

// Resolver maps names to sources using the configured catalog.
type Resolver struct {
	Catalog []config.Dataset
	Default string
	// SearchDirs are tried in order for relative file values.
	SearchDirs []string
}

// NewResolver builds a resolver from cfg. Relative values are looked up in
// the working directory, the XDG data directory and next to the config
// file.
func NewResolver(cfg config.Config) *Resolver {
	dirs := []string{"."}
	if d := config.DataDir(); d != "" {
		dirs = append(dirs, d)
	}
	if p := config.ConfigPath(); p != "" {
		dirs = append(dirs, filepath.Dir(p))
	}
	return &Resolver{Catalog: cfg.Datasets, Default: cfg.DefaultSource(), SearchDirs: dirs}
}

// Resolve turns name into a Source. An empty name means the default
// dataset. Catalog labels match case-insensitively.
func (r *Resolver) Resolve(name string) (Source, error) {
	label := ""
	if name == "" {
		name = r.Default
	}
	if name == "" {
		return Source{}, ErrNoDataset
	}
	for _, d := range r.Catalog {
		if strings.EqualFold(d.Label, name) || d.Value == name {
			label, name = d.Label, d.ResolvedValue()
			break
		}
	}

	kind := Classify(name)
	if kind == KindURL {
		return Source{Kind: kind, Label: label, Location: name}, nil
	}
	path, err := r.find(name)
	if err != nil {
		return Source{}, err
	}
	return Source{Kind: kind, Label: label, Location: path}, nil
}

// CatalogSources resolves every catalog entry. Entries that cannot be resolved
// are returned with an empty location so callers can list them anyway.
func (r *Resolver) CatalogSources() []Source {
	out := make([]Source, 0, len(r.Catalog))
	for _, d := range r.Catalog {
		s, err := r.Resolve(d.Value)
		if err != nil {
			s = Source{Kind: Classify(d.Value)}
		}
		s.Label = d.Label
		out = append(out, s)
	}
	return out
}

func (r *Resolver) find(value string) (string, error) {
	if filepath.IsAbs(value) {
		if _, err := os.Stat(value); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, value)
		}
		return value, nil
	}
	dirs := r.SearchDirs
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, value)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Abs(candidate)
		}
	}
	return "", fmt.Errorf("%w: %s (searched %s)", ErrNotFound, value, strings.Join(dirs, ", "))
}
