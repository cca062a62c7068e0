package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/vanderheijden86/conceptmap/pkg/dataset"
	"github.com/vanderheijden86/conceptmap/pkg/debug"
	"github.com/vanderheijden86/conceptmap/pkg/model"
	"github.com/vanderheijden86/conceptmap/pkg/session"
)

// DefaultMaxBytes caps how much of a remote document is read.
const DefaultMaxBytes = 64 << 20

// Loader reads sources into parsed datasets.
type Loader struct {
	Options  dataset.Options
	Client   *http.Client
	MaxBytes int64
}

// NewLoader returns a Loader with a 30 second HTTP timeout.
func NewLoader(opts dataset.Options) *Loader {
	return &Loader{
		Options:  opts,
		Client:   &http.Client{Timeout: 30 * time.Second},
		MaxBytes: DefaultMaxBytes,
	}
}

// Load reads and parses s.
func (l *Loader) Load(ctx context.Context, s Source) (*model.Dataset, error) {
	start := time.Now()
	data, err := l.Read(ctx, s)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.Parse(data, l.Options)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s, err)
	}
	debug.LogTiming("datasource.Load "+s.String(), time.Since(start))
	return ds, nil
}

// Func adapts Load to the session manager's loader signature.
func (l *Loader) Func(s Source) session.Loader {
	return func(ctx context.Context) (*model.Dataset, error) {
		return l.Load(ctx, s)
	}
}

// Read returns the raw JSON document behind s. SQLite sources are
// assembled into the same document shape.
func (l *Loader) Read(ctx context.Context, s Source) ([]byte, error) {
	switch s.Kind {
	case KindInline:
		return s.Data, nil
	case KindFile:
		data, err := os.ReadFile(s.Location)
		if err != nil {
			return nil, fmt.Errorf("reading dataset: %w", err)
		}
		return data, nil
	case KindSQLite:
		return ReadSQLite(ctx, s.Location)
	case KindURL:
		return l.fetch(ctx, s.Location)
	default:
		return nil, fmt.Errorf("unknown source kind %q", s.Kind)
	}
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrHTTPStatus, url, resp.Status)
	}
	limit := l.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s is larger than %d bytes", url, limit)
	}
	return data, nil
}
