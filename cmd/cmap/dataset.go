package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/conceptmap/internal/datasource"
	"github.com/vanderheijden86/conceptmap/pkg/debug"
	"github.com/vanderheijden86/conceptmap/pkg/geometry"
	"github.com/vanderheijden86/conceptmap/pkg/model"
	"github.com/vanderheijden86/conceptmap/pkg/overlay"
	"github.com/vanderheijden86/conceptmap/pkg/query"
	"github.com/vanderheijden86/conceptmap/pkg/session"
)

// loaded is a dataset read for one command.
type loaded struct {
	source  datasource.Source
	dataset *model.Dataset
	opts    session.Options
	loader  *datasource.Loader
}

// title names the dataset in headers and image captions.
func (ld *loaded) title() string {
	if ld.source.Label != "" {
		return ld.source.Label
	}
	if ld.source.Kind == datasource.KindURL {
		return ld.source.Location
	}
	return filepath.Base(ld.source.Location)
}

func datasetArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// sessionOptions returns the configured session options, reporting a bad
// overlay policy or filter expression as a config error.
func sessionOptions() (session.Options, error) {
	opts, err := cfg.SessionOptions()
	if err != nil {
		return opts, &exitError{code: ExitConfigError, err: err}
	}
	return opts, nil
}

// openDataset resolves name against the catalog and loads it.
func openDataset(ctx context.Context, name string) (*loaded, error) {
	opts, err := sessionOptions()
	if err != nil {
		return nil, err
	}
	src, err := datasource.NewResolver(cfg).Resolve(name)
	if err != nil {
		return nil, dataError(err)
	}
	l := datasource.NewLoader(opts.DatasetOptions())
	ds, err := l.Load(ctx, src)
	if err != nil {
		return nil, dataError(err)
	}
	debug.Log("cmap: loaded %s: %d nodes, %d edges", src, len(ds.Nodes), len(ds.Edges))
	return &loaded{source: src, dataset: ds, opts: opts, loader: l}, nil
}

// buildSession lays out ld on surface. The returned scheduler holds the
// first overlay frame; callers flush it once the view is set up.
func buildSession(ld *loaded, surface overlay.Surface, width, height int) (*session.Session, *overlay.ManualScheduler, error) {
	sched := overlay.NewManualScheduler()
	opts := ld.opts
	if width > 0 && height > 0 {
		opts.Width, opts.Height = float64(width), float64(height)
	}
	s, err := session.Build(ld.dataset, surface, sched, opts)
	if err != nil {
		return nil, nil, dataError(err)
	}
	return s, sched, nil
}

// viewFlags are the filter and camera flags shared by render, inspect and
// watch.
type viewFlags struct {
	zoom      float64
	pan       string
	fit       bool
	types     []string
	expertise []string
	where     string
	selected  string
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.zoom, "zoom", 0, "zoom level (default: fit the map)")
	cmd.Flags().StringVar(&f.pan, "pan", "", "pan offset as x,y in rendered pixels")
	cmd.Flags().BoolVar(&f.fit, "fit", false, "fit the map before applying --zoom")
	cmd.Flags().StringSliceVar(&f.types, "types", nil, "node types to show (default: all)")
	cmd.Flags().StringSliceVar(&f.expertise, "expertise", nil, "expertise levels to show (default: all)")
	cmd.Flags().StringVar(&f.where, "where", "", "CEL expression nodes must satisfy; variables: "+strings.Join(query.Variables, ", "))
	cmd.Flags().StringVar(&f.selected, "select", "", "node id to select")
}

// apply sets the camera and filters on s. Filters go last so the final
// pass sees the final zoom.
func (f *viewFlags) apply(s *session.Session) error {
	if f.fit || (f.zoom == 0 && f.pan == "") {
		s.View.Fit(fitPadding)
	}
	if f.zoom != 0 {
		s.View.SetZoom(f.zoom)
	}
	if f.pan != "" {
		p, err := parsePoint(f.pan)
		if err != nil {
			return err
		}
		s.View.SetPan(p)
	}

	if len(f.types) > 0 && !s.SetTypes(f.types) {
		return fmt.Errorf("--types %s: no known node type", strings.Join(f.types, ","))
	}
	if len(f.expertise) > 0 && !s.SetExpertise(f.expertise) {
		return fmt.Errorf("--expertise %s: no known expertise level", strings.Join(f.expertise, ","))
	}
	if f.where != "" {
		q, err := query.Compile(f.where)
		if err != nil {
			return fmt.Errorf("--where: %w", err)
		}
		if q != nil {
			s.SetQuery(q)
		}
	}
	if f.selected != "" {
		if _, ok := s.Index[f.selected]; !ok {
			return dataError(fmt.Errorf("--select: no node %q", f.selected))
		}
		s.Select(f.selected)
	}
	if cfg.Overlay.Hidden && s.Overlay != nil {
		s.Overlay.SetVisibility(false)
	}
	return nil
}

const fitPadding = 40

func parsePoint(s string) (geometry.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geometry.Point{}, fmt.Errorf("bad point %q (want x,y)", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("bad point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("bad point %q: %w", s, err)
	}
	return geometry.Point{X: x, Y: y}, nil
}

// summary describes what a session currently shows.
func summary(s *session.Session) []string {
	res := s.Result()
	overlays := "on"
	if !s.Overlay.Visible() {
		overlays = "off"
	}
	return []string{
		fmt.Sprintf("zoom %s  detail %s", s.View.ZoomPercent(), res.Detail),
		fmt.Sprintf("%d/%d nodes  %d/%d edges  overlays %s",
			res.VisibleNodes(), len(s.Nodes), res.VisibleEdges(), len(s.Edges), overlays),
	}
}
