package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/conceptmap/internal/datasource"
	"github.com/vanderheijden86/conceptmap/pkg/debug"
	"github.com/vanderheijden86/conceptmap/pkg/session"
	"github.com/vanderheijden86/conceptmap/pkg/ui"
	"github.com/vanderheijden86/conceptmap/pkg/watcher"
)

var tuiNoWatch bool

var tuiCmd = &cobra.Command{
	Use:   "tui [dataset]",
	Short: "Browse a concept map in the terminal",
	Long: `Tui opens the interactive browser: zoom and pan the map, toggle node
type and expertise chips, hover and select nodes, and read the info panel.

Local datasets are reloaded when the file changes. Press d to switch to
another catalog entry and ? for the key list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&tuiNoWatch, "no-watch", false, "do not reload when the dataset file changes")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	opts, err := sessionOptions()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	resolver := datasource.NewResolver(cfg)
	loader := datasource.NewLoader(opts.DatasetOptions())
	rw := &reloadWatcher{ctx: ctx, enabled: !tuiNoWatch}
	defer rw.stop()

	open := func(value string) (session.Loader, string, error) {
		src, err := resolver.Resolve(value)
		if err != nil {
			return nil, "", err
		}
		rw.follow(src)
		return loader.Func(src), sourceTitle(src), nil
	}

	uiOpts := ui.Options{
		Session: opts,
		Catalog: cfg.Datasets,
		Open:    open,
		Context: ctx,
	}
	// With no dataset named and no usable default the browser starts empty
	// and the picker is one key away.
	if l, title, err := open(datasetArg(args)); err == nil {
		uiOpts.Loader, uiOpts.Title = l, title
	} else if len(args) > 0 || !(errors.Is(err, datasource.ErrNoDataset) || errors.Is(err, datasource.ErrNotFound)) {
		return dataError(err)
	} else {
		debug.Log("tui: starting without a dataset: %v", err)
	}

	uiOpts.HideOverlays = cfg.Overlay.Hidden
	return runTUIProgram(ui.NewModel(uiOpts), rw)
}

func sourceTitle(src datasource.Source) string {
	ld := loaded{source: src}
	return ld.title()
}

// reloadWatcher follows the dataset on screen and asks the program to
// reload it after every change.
type reloadWatcher struct {
	ctx     context.Context
	enabled bool

	mu      sync.Mutex
	program *tea.Program
	current *watcher.Watcher
}

func (rw *reloadWatcher) attach(p *tea.Program) {
	rw.mu.Lock()
	rw.program = p
	rw.mu.Unlock()
}

// follow swaps the watched file for src. Sources that are not local
// files stop watching.
func (rw *reloadWatcher) follow(src datasource.Source) {
	if !rw.enabled {
		return
	}
	rw.stop()
	if !src.Watchable() {
		return
	}
	w, err := watcher.New(src.Location, watcher.WithOnChange(func(string) {
		rw.mu.Lock()
		p := rw.program
		rw.mu.Unlock()
		if p != nil {
			p.Send(ui.ReloadMsg{})
		}
	}))
	if err == nil {
		err = w.Start(rw.ctx)
	}
	if err != nil {
		debug.Log("tui: not watching %s: %v", src, err)
		return
	}
	rw.mu.Lock()
	rw.current = w
	rw.mu.Unlock()
}

func (rw *reloadWatcher) stop() {
	rw.mu.Lock()
	w := rw.current
	rw.current = nil
	rw.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}

func runTUIProgram(m ui.Model, rw *reloadWatcher) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)
	rw.attach(p)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated runs: set CMAP_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("CMAP_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()
				select {
				case <-runDone:
					return
				case <-timer.C:
				}
				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
