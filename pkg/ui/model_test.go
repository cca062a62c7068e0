package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/conceptmap/pkg/config"
	"github.com/vanderheijden86/conceptmap/pkg/geometry"
	"github.com/vanderheijden86/conceptmap/pkg/model"
	"github.com/vanderheijden86/conceptmap/pkg/session"
	"github.com/vanderheijden86/conceptmap/pkg/testutil"
)

func staticLoader(ds *model.Dataset) session.Loader {
	return func(context.Context) (*model.Dataset, error) { return ds, nil }
}

// loadedModel runs one load to completion the way bubbletea would.
func loadedModel(t *testing.T, opts Options) Model {
	t.Helper()
	if opts.Loader == nil {
		opts.Loader = staticLoader(testutil.Math())
	}
	if opts.Clipboard == nil {
		opts.Clipboard = func(string) error { return nil }
	}
	m := NewModel(opts)
	cmd := m.load(m.loader)
	m = send(m, cmd())
	s := m.Session()
	if s == nil {
		t.Fatalf("no session after load, status %q", m.Status())
	}
	// Fit may land on any zoom; pin one where every tier is shown.
	s.View.SetZoom(1.5)
	return send(m, nil)
}

// centreOn pans so id sits in the middle of the map pane.
func centreOn(m Model, id string) Model {
	s := m.Session()
	el, _ := s.View.Element(id)
	w, h := s.View.Size()
	zoom := s.View.Zoom()
	s.View.SetPan(geometry.Point{X: w/2 - el.Pos.X*zoom, Y: h/2 - el.Pos.Y*zoom})
	return send(m, nil)
}

func send(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLoad_BuildsSession(t *testing.T) {
	m := loadedModel(t, Options{Title: "math"})
	if m.Loading() {
		t.Error("still loading after the only load completed")
	}
	if !strings.Contains(m.Status(), "loaded 5 nodes") {
		t.Errorf("status = %q", m.Status())
	}
	if m.Canvas().Drawn() == 0 {
		t.Error("overlay frame was not flushed onto the canvas")
	}
}

func TestLoad_StaleResultDiscarded(t *testing.T) {
	m := NewModel(Options{})
	first := m.load(staticLoader(testutil.Chain(2)))
	second := m.load(staticLoader(testutil.Math()))

	m = send(m, second())
	m = send(m, first())

	s := m.Session()
	if s == nil || len(s.Dataset.Nodes) != 5 {
		t.Fatalf("expected the newer Math dataset to stay on screen")
	}
}

func TestLoad_FailureKeepsSession(t *testing.T) {
	m := loadedModel(t, Options{})
	before := m.Session()

	cmd := m.load(func(context.Context) (*model.Dataset, error) {
		return nil, errors.New("boom")
	})
	m = send(m, cmd())

	if m.Session() != before || before.Destroyed() {
		t.Error("failed load replaced the current session")
	}
	if !strings.Contains(m.Status(), "failed to load") {
		t.Errorf("status = %q", m.Status())
	}
}

func TestReloadMsg_StartsLoad(t *testing.T) {
	m := loadedModel(t, Options{})
	next, cmd := m.Update(ReloadMsg{})
	if cmd == nil || !next.(Model).Loading() {
		t.Fatal("reload did not start a load")
	}
}

func TestZoomKeys(t *testing.T) {
	m := loadedModel(t, Options{})
	s := m.Session()

	s.View.SetZoom(1)
	start := s.View.Zoom()
	m = send(m, key("-"))
	if s.View.Zoom() >= start {
		t.Fatalf("zoom out: %v -> %v", start, s.View.Zoom())
	}
	out := s.View.Zoom()
	m = send(m, key("+"))
	if s.View.Zoom() <= out {
		t.Errorf("zoom in: %v -> %v", out, s.View.Zoom())
	}
	if !strings.Contains(m.View(), s.View.ZoomPercent()) {
		t.Error("zoom readout missing from the sidebar")
	}
}

func TestPanKeys(t *testing.T) {
	m := loadedModel(t, Options{})
	s := m.Session()
	before := s.View.Pan()
	send(m, key("left"))
	if s.View.Pan().X != before.X+panCols*CellWidth {
		t.Errorf("pan = %v, want x shifted by %v", s.View.Pan(), panCols*CellWidth)
	}
}

func TestHoverAndSelect(t *testing.T) {
	m := loadedModel(t, Options{})
	s := m.Session()

	m = send(m, key("tab"))
	hovered := s.Hovered()
	if hovered == "" {
		t.Fatal("tab did not hover a node")
	}
	m = send(m, key("enter"))
	if id, ok := s.Selected(); !ok || id != hovered {
		t.Fatalf("selected %q, want %q", id, hovered)
	}
	if !strings.Contains(m.info.View(), s.Index[hovered].Label) {
		t.Error("info panel does not show the selected node")
	}

	m = send(m, key("esc"))
	if _, ok := s.Selected(); ok {
		t.Error("esc did not clear the selection")
	}
	if s.Hovered() != "" {
		t.Error("esc did not clear the hover")
	}

	m = send(m, key("shift+tab"))
	ids := visibleIDs(s)
	if s.Hovered() != ids[len(ids)-1] {
		t.Errorf("shift+tab from nothing hovered %q, want last visible %q", s.Hovered(), ids[len(ids)-1])
	}
}

func TestTypeChips(t *testing.T) {
	m := loadedModel(t, Options{})
	s := m.Session()

	m = send(m, key("3"))
	if s.Filters.State.Types.Active(string(model.TypeTopic)) {
		t.Fatal("key 3 did not switch topics off")
	}
	if s.Result().Nodes["algebra"] {
		t.Error("topic still visible with its chip off")
	}
	send(m, key("3"))
	if !s.Filters.State.Types.Active(string(model.TypeTopic)) {
		t.Error("key 3 did not switch topics back on")
	}
}

func TestExpertiseChips(t *testing.T) {
	m := loadedModel(t, Options{})
	s := m.Session()
	levels := s.Filters.State.Expertise.Keys()
	if len(levels) < 2 {
		t.Fatalf("expected several expertise levels, got %v", levels)
	}

	m = send(m, key("e"))
	m = send(m, key(" "))
	if s.Filters.State.Expertise.Active(levels[1]) {
		t.Fatalf("space did not toggle %s", levels[1])
	}

	s.SetExpertise([]string{levels[0]})
	m = send(m, key("e")) // wraps past the end eventually
	for m.expCursor != 0 {
		m = send(m, key("e"))
	}
	m = send(m, key(" "))
	if !s.Filters.State.Expertise.Active(levels[0]) {
		t.Error("last expertise chip was switched off")
	}
	if !strings.Contains(m.Status(), "must stay active") {
		t.Errorf("status = %q", m.Status())
	}
}

func TestOverlayToggle(t *testing.T) {
	m := loadedModel(t, Options{})
	s := m.Session()
	if !s.Overlay.Visible() {
		t.Fatal("overlays should start visible")
	}
	m = send(m, key("o"))
	if s.Overlay.Visible() {
		t.Fatal("o did not hide overlays")
	}
	// A filter pass must not bring them back while toggled off.
	m = send(m, key("-"))
	if s.Overlay.Visible() {
		t.Error("zooming re-enabled hidden overlays")
	}
	send(m, key("o"))
	if !s.Overlay.Visible() {
		t.Error("o did not restore overlays")
	}
}

func TestCopySelectedID(t *testing.T) {
	var copied string
	m := loadedModel(t, Options{Clipboard: func(s string) error { copied = s; return nil }})

	m = send(m, key("y"))
	if copied != "" || !strings.Contains(m.Status(), "nothing selected") {
		t.Fatalf("copy without selection: copied %q, status %q", copied, m.Status())
	}
	m.Session().Select("algebra")
	m = send(m, key("y"))
	if copied != "algebra" {
		t.Errorf("copied %q", copied)
	}
}

func TestMouseTap(t *testing.T) {
	m := loadedModel(t, Options{})
	s := m.Session()

	m = centreOn(m, "geometry")

	pos, _ := s.View.RenderedPosition("geometry")
	col, row, ok := m.Canvas().CellOf(pos)
	if !ok {
		t.Fatal("geometry is off the map pane")
	}
	m = send(m, tea.MouseMsg{X: col, Y: row + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if id, ok := s.Selected(); !ok || id == "" {
		t.Error("clicking a node did not select anything")
	}

	m = send(m, tea.MouseMsg{X: col, Y: row + 1, Action: tea.MouseActionMotion})
	if s.Hovered() == "" {
		t.Error("moving over a node did not hover it")
	}
}

func TestDatasetPicker(t *testing.T) {
	opened := ""
	m := loadedModel(t, Options{
		Catalog: []config.Dataset{{Label: "Math", Value: "math.json"}},
		Open: func(value string) (session.Loader, string, error) {
			opened = value
			return staticLoader(testutil.Math()), value, nil
		},
	})
	m = send(m, key("d"))
	if m.picker == nil {
		t.Fatal("d did not open the picker")
	}
	m = send(m, key("esc"))
	if m.picker != nil {
		t.Error("esc did not close the picker")
	}

	m.open("math.json")
	if opened != "math.json" || m.title != "math.json" {
		t.Errorf("open did not resolve the entry: opened %q title %q", opened, m.title)
	}
}

func TestPickerWithoutCatalog(t *testing.T) {
	m := loadedModel(t, Options{})
	m = send(m, key("d"))
	if m.picker != nil {
		t.Error("picker opened without a catalog")
	}
}

func TestView_Layout(t *testing.T) {
	m := loadedModel(t, Options{Title: "math"})
	m = send(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	out := m.View()
	for _, want := range []string{"cmap", "math", "Zoom", "Detail", "Types", "Expertise", "Info"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	cols, rows := m.Canvas().Grid()
	if cols+m.sidebarWidth+2 != 100 || rows != 28 {
		t.Errorf("grid %dx%d with sidebar %d does not fit 100x30", cols, rows, m.sidebarWidth)
	}

	m = send(m, key("?"))
	if !strings.Contains(m.View(), "Keys") {
		t.Error("help not shown")
	}
}

func TestView_NoSession(t *testing.T) {
	m := NewModel(Options{})
	if !strings.Contains(m.View(), "No dataset loaded") {
		t.Error("empty browser should say nothing is loaded")
	}
	m = send(m, key("+"))
	if m.Session() != nil {
		t.Error("keys without a session should be ignored")
	}
}

func TestQuit(t *testing.T) {
	m := loadedModel(t, Options{})
	s := m.Session()
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if !s.Destroyed() {
		t.Error("quitting did not destroy the session")
	}
}

func TestHideOverlaysOption(t *testing.T) {
	m := loadedModel(t, Options{HideOverlays: true})
	if m.Session().Overlay.Visible() {
		t.Fatal("overlays visible although started hidden")
	}
	send(m, key("o"))
	if !m.Session().Overlay.Visible() {
		t.Error("o did not bring the overlays back")
	}
}
