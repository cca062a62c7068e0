package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/conceptmap/internal/datasource"
	"github.com/vanderheijden86/conceptmap/pkg/eventloop"
	"github.com/vanderheijden86/conceptmap/pkg/export"
	"github.com/vanderheijden86/conceptmap/pkg/model"
	"github.com/vanderheijden86/conceptmap/pkg/overlay"
	"github.com/vanderheijden86/conceptmap/pkg/session"
	"github.com/vanderheijden86/conceptmap/pkg/watcher"
)

var (
	watchOutput   string
	watchFormat   string
	watchWidth    int
	watchHeight   int
	watchDebounce time.Duration
	watchPoll     bool
	watchCount    int
	watchView     viewFlags
)

var watchCmd = &cobra.Command{
	Use:   "watch [dataset]",
	Short: "Re-render a snapshot whenever the dataset file changes",
	Long: `Watch renders the dataset like render, then follows the file and
renders again after every change, printing what changed between loads.

A load that fails keeps the last good image and reports the error. Only
local files and SQLite datasets can be watched.`,
	Example: `  cmap watch math.json -o math.png
  cmap watch math.json -o math.svg --poll --debounce 1s`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "output file (required)")
	watchCmd.Flags().StringVar(&watchFormat, "format", "", "png or svg (default: from the output extension)")
	watchCmd.Flags().IntVar(&watchWidth, "width", 1300, "image width in pixels")
	watchCmd.Flags().IntVar(&watchHeight, "height", 840, "image height in pixels")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounceDuration, "quiet period before reloading")
	watchCmd.Flags().BoolVar(&watchPoll, "poll", false, "poll the file instead of using filesystem events")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "exit after this many renders (0 = run until interrupted)")
	watchView.register(watchCmd)
	_ = watchCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ld, err := openDataset(cmd.Context(), datasetArg(args))
	if err != nil {
		return err
	}
	if !ld.source.Watchable() {
		return dataError(fmt.Errorf("%s cannot be watched", ld.source))
	}
	format, err := export.SnapshotFormat(watchOutput, watchFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &rerenderer{
		ld:     ld,
		format: format,
		loop:   eventloop.New(float64(cfg.UI.FPS)),
		out:    cmd.OutOrStdout(),
		cancel: cancel,
	}
	r.manager = session.NewManager(r.build, session.WithNotifier(session.WriterNotifier{W: cmd.ErrOrStderr()}))
	defer r.manager.Close()

	w, err := watcher.New(ld.source.Location,
		watcher.WithDebounce(watchDebounce),
		watcher.WithForcePoll(watchPoll),
		watcher.WithOnChange(func(string) { r.loop.Post(func() { r.reload(ctx) }) }),
		watcher.WithOnError(func(err error) {
			fmt.Fprintf(cmd.ErrOrStderr(), "watch: %v\n", err)
		}),
	)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return dataError(err)
	}
	defer w.Stop()

	r.loop.Post(func() {
		r.complete(r.manager.Begin(), ld.dataset, nil)
	})
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s (ctrl+c to stop)\n", ld.source.Location)

	if err := r.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// rerenderer owns the watch state. Every method runs on the loop
// goroutine.
type rerenderer struct {
	ld      *loaded
	format  string
	loop    *eventloop.Loop
	manager *session.Manager
	out     io.Writer
	cancel  context.CancelFunc

	surface overlay.Surface
	prev    *model.Dataset
	renders int
}

func (r *rerenderer) build(ds *model.Dataset) (*session.Session, error) {
	surface, err := export.NewSurface(r.format, watchWidth, watchHeight)
	if err != nil {
		return nil, err
	}
	opts := r.ld.opts
	opts.Width, opts.Height = float64(watchWidth), float64(watchHeight)
	s, err := session.Build(ds, surface, r.loop, opts)
	if err != nil {
		return nil, err
	}
	if err := watchView.apply(s); err != nil {
		s.Destroy()
		return nil, err
	}
	r.surface = surface
	return s, nil
}

// reload reads the file off the loop goroutine and completes on it.
func (r *rerenderer) reload(ctx context.Context) {
	gen := r.manager.Begin()
	go func() {
		ds, err := r.ld.loader.Load(ctx, r.ld.source)
		r.loop.Post(func() { r.complete(gen, ds, err) })
	}()
}

func (r *rerenderer) complete(gen uint64, ds *model.Dataset, loadErr error) {
	s, err := r.manager.Complete(gen, ds, loadErr)
	if err != nil || s == nil {
		return
	}
	if r.prev != nil {
		fmt.Fprintln(r.out, strings.TrimRight(datasource.Diff(r.prev, s.Dataset).Summary(), "\n"))
	}
	r.prev = s.Dataset

	// Queued behind the overlay frame Build requested, so the polygons are
	// on the surface when this runs.
	surface := r.surface
	r.loop.RequestFrame(func() {
		if s.Destroyed() {
			return
		}
		if err := writeSnapshot(watchOutput, surface, s, r.ld); err != nil {
			fmt.Fprintf(r.out, "render failed: %v\n", err)
			return
		}
		r.renders++
		fmt.Fprintf(r.out, "%s wrote %s\n", time.Now().Format("15:04:05"), watchOutput)
		if watchCount > 0 && r.renders >= watchCount {
			r.cancel()
		}
	})
}
