// Package ui is the terminal concept-map browser: an ASCII rendering of
// the laid-out map with shaded area regions, a sidebar holding the zoom
// readout and filter chips, and the info panel of the selected node.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/conceptmap/pkg/config"
	"github.com/vanderheijden86/conceptmap/pkg/debug"
	"github.com/vanderheijden86/conceptmap/pkg/model"
	"github.com/vanderheijden86/conceptmap/pkg/overlay"
	"github.com/vanderheijden86/conceptmap/pkg/session"
	cmview "github.com/vanderheijden86/conceptmap/pkg/viewport"
)

const (
	defaultWidth  = 120
	defaultHeight = 40

	maxSidebarWidth = 46
	minSidebarWidth = 28
	fitPadding      = 30

	// Pan steps in cells.
	panCols = 6
	panRows = 3
)

// Opener resolves a catalog value into a loader and a display title.
type Opener func(value string) (session.Loader, string, error)

// Options configures the browser.
type Options struct {
	Title   string
	Loader  session.Loader
	Session session.Options
	Catalog []config.Dataset
	Open    Opener
	Context context.Context
	// Clipboard copies text; nil uses the system clipboard.
	Clipboard func(string) error
	// HideOverlays starts with the area overlays toggled off.
	HideOverlays bool
}

// ReloadMsg asks the browser to load the current dataset again. The file
// watcher sends it through tea.Program.Send.
type ReloadMsg struct{}

type loadedMsg struct {
	gen uint64
	ds  *model.Dataset
	err error
}

type statusLine struct {
	level session.Level
	text  string
}

// Model is the bubbletea model of the browser. Session state is only ever
// touched from Update, which bubbletea runs on a single goroutine, so the
// overlay frames are flushed there too.
type Model struct {
	ctx     context.Context
	opts    Options
	manager *session.Manager
	sched   *overlay.ManualScheduler
	canvas  *Canvas
	theme   Theme

	loader session.Loader
	title  string

	width, height int
	sidebarWidth  int

	status *statusLine

	focus       int
	expCursor   int
	overlaysOff bool
	showHelp    bool
	loading     bool

	md      *glamour.TermRenderer
	info    viewport.Model
	infoKey string
	spin    spinner.Model

	picker    *huh.Form
	pickValue *string
}

// NewModel returns a browser that loads opts.Loader on Init.
func NewModel(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Session.Styles.Nodes == nil {
		opts.Session.Styles = session.DefaultOptions().Styles
	}
	m := Model{
		ctx:         opts.Context,
		opts:        opts,
		sched:       overlay.NewManualScheduler(),
		canvas:      NewCanvas(1, 1),
		theme:       DefaultTheme(lipgloss.DefaultRenderer(), opts.Session.Styles),
		loader:      opts.Loader,
		title:       opts.Title,
		status:      &statusLine{},
		focus:       -1,
		overlaysOff: opts.HideOverlays,
		spin:        spinner.New(spinner.WithSpinner(spinner.Dot)),
		pickValue:   new(string),
	}
	status, canvas, sched, base := m.status, m.canvas, m.sched, opts.Session
	m.manager = session.NewManager(
		func(ds *model.Dataset) (*session.Session, error) {
			o := base
			o.Width, o.Height = canvas.width, canvas.height
			return session.Build(ds, canvas, sched, o)
		},
		session.WithNotifier(session.NotifierFunc(func(level session.Level, msg string) {
			status.level, status.text = level, msg
		})),
	)
	m.resize(defaultWidth, defaultHeight)
	return m
}

// Session is the session on screen, or nil.
func (m Model) Session() *session.Session { return m.manager.Current() }

// Canvas is the overlay layer of the map pane.
func (m Model) Canvas() *Canvas { return m.canvas }

// Status returns the status line text.
func (m Model) Status() string { return m.status.text }

// Loading reports whether a load is in flight.
func (m Model) Loading() bool { return m.loading }

// Init starts the first load.
func (m Model) Init() tea.Cmd {
	if m.loader == nil {
		return nil
	}
	return tea.Batch(m.load(m.loader), m.spin.Tick)
}

// load starts a stamped load. The dataset is fetched off the update
// goroutine; the session is built when loadedMsg comes back.
func (m *Model) load(loader session.Loader) tea.Cmd {
	if loader == nil {
		return nil
	}
	m.loading = true
	gen := m.manager.Begin()
	ctx := m.ctx
	return func() tea.Msg {
		ds, err := loader(ctx)
		return loadedMsg{gen: gen, ds: ds, err: err}
	}
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The picker sees every message while open; huh advances through its
	// own internal messages.
	if m.picker != nil {
		return m.updatePicker(msg)
	}

	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case loadedMsg:
		m.loading = msg.gen != m.manager.Generation()
		if s, _ := m.manager.Complete(msg.gen, msg.ds, msg.err); s != nil {
			m.adopt(s)
		}

	case ReloadMsg:
		cmds = append(cmds, m.load(m.loader))

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKeys(msg)
		cmds = append(cmds, cmd)
	}

	m.sync()
	return m, tea.Batch(cmds...)
}

func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.picker = nil
		return m, nil
	}
	form, cmd := m.picker.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.picker = f
	}
	switch m.picker.State {
	case huh.StateCompleted:
		m.picker = nil
		return m, tea.Batch(cmd, m.open(*m.pickValue))
	case huh.StateAborted:
		m.picker = nil
	}
	return m, cmd
}

// open switches to a catalog entry.
func (m *Model) open(value string) tea.Cmd {
	if m.opts.Open == nil || value == "" {
		return nil
	}
	loader, title, err := m.opts.Open(value)
	if err != nil {
		m.notify(session.LevelError, fmt.Sprintf("cannot open %s: %v", value, err))
		return nil
	}
	m.loader, m.title = loader, title
	return m.load(loader)
}

func (m *Model) notify(level session.Level, text string) {
	m.status.level, m.status.text = level, text
}

// adopt fits a freshly built session into the pane.
func (m *Model) adopt(s *session.Session) {
	m.focus = -1
	m.infoKey = ""
	w, h := m.canvas.width, m.canvas.height
	s.View.Resize(w, h)
	s.View.Fit(fitPadding)
	debug.Log("ui: adopted session %s at zoom %.2f", s.ID, s.View.Zoom())
}

// resize splits the terminal into the map pane and the sidebar.
func (m *Model) resize(width, height int) {
	m.width, m.height = max(width, 20), max(height, 8)
	m.sidebarWidth = min(max(m.width/3, minSidebarWidth), maxSidebarWidth)
	cols := max(m.width-m.sidebarWidth-2, 1)
	rows := max(m.height-2, 1)

	m.canvas.SetGrid(cols, rows)
	w, h := float64(cols)*CellWidth, float64(rows)*CellHeight
	m.canvas.Resize(w, h)
	if s := m.Session(); s != nil {
		s.View.Resize(w, h)
		s.Overlay.RequestRender()
	}

	wrap := max(m.sidebarWidth-4, 10)
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		debug.Log("ui: glamour renderer: %v", err)
		md = nil
	}
	m.md = md
	m.info = viewport.New(m.sidebarWidth-2, max(rows/2, 3))
	m.infoKey = ""
}

// sync reapplies the overlay toggle, runs queued overlay frames and
// refreshes the info panel when the selection moved.
func (m *Model) sync() {
	s := m.Session()
	if s == nil {
		return
	}
	if m.overlaysOff && s.Overlay.Visible() {
		s.Overlay.SetVisibility(false)
	}
	m.sched.Flush()

	sel, _ := s.Selected()
	key := s.ID + "\x00" + sel
	if key == m.infoKey {
		return
	}
	m.infoKey = key
	text := s.Info()
	if m.md != nil {
		if out, err := m.md.Render(text); err == nil {
			text = strings.TrimSpace(out)
		}
	}
	m.info.SetContent(text)
	m.info.GotoTop()
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.manager.Close()
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "r":
		return m, m.load(m.loader)
	case "d":
		if len(m.opts.Catalog) == 0 || m.opts.Open == nil {
			m.notify(session.LevelWarn, "no dataset catalog configured")
			return m, nil
		}
		m.picker = NewDatasetPicker(m.opts.Catalog, m.pickValue)
		return m, m.picker.Init()
	}

	s := m.Session()
	if s == nil {
		return m, nil
	}
	switch msg.String() {
	case "+", "=":
		s.View.ZoomIn()
	case "-", "_":
		s.View.ZoomOut()
	case "0":
		s.View.Fit(fitPadding)
	case "left", "h":
		s.View.PanBy(panCols*CellWidth, 0)
	case "right", "l":
		s.View.PanBy(-panCols*CellWidth, 0)
	case "up", "k":
		s.View.PanBy(0, panRows*CellHeight)
	case "down", "j":
		s.View.PanBy(0, -panRows*CellHeight)
	case "tab":
		m.cycleFocus(s, 1)
	case "shift+tab":
		m.cycleFocus(s, -1)
	case "enter":
		if id := s.Hovered(); id != "" {
			s.Select(id)
		}
	case "esc":
		s.Select("")
		s.Hover("")
		m.focus = -1
	case "1", "2", "3", "4", "5", "6", "7":
		i := int(msg.String()[0] - '1')
		if i < len(model.FilterableTypes) {
			t := model.FilterableTypes[i]
			if !s.ToggleType(t) {
				m.notify(session.LevelWarn, "at least one type must stay active")
			}
		}
	case "e":
		if n := len(s.Filters.State.Expertise.Keys()); n > 0 {
			m.expCursor = (m.expCursor + 1) % n
		}
	case " ", "space":
		keys := s.Filters.State.Expertise.Keys()
		if m.expCursor < len(keys) && !s.ToggleExpertise(keys[m.expCursor]) {
			m.notify(session.LevelWarn, "at least one expertise level must stay active")
		}
	case "o":
		m.overlaysOff = !m.overlaysOff
		if !m.overlaysOff {
			s.Refresh()
		}
	case "y":
		id, ok := s.Selected()
		if !ok {
			m.notify(session.LevelWarn, "nothing selected")
			break
		}
		if err := m.opts.Clipboard(id); err != nil {
			m.notify(session.LevelError, fmt.Sprintf("copy failed: %v", err))
			break
		}
		m.notify(session.LevelInfo, "copied "+id)
	case "pgup":
		m.info.LineUp(max(m.info.Height/2, 1))
	case "pgdown":
		m.info.LineDown(max(m.info.Height/2, 1))
	}
	return m, nil
}

// visibleIDs lists the shown nodes in draw order.
func visibleIDs(s *session.Session) []string {
	var ids []string
	for _, el := range s.View.Elements() {
		if !el.Hidden {
			ids = append(ids, el.ID)
		}
	}
	return ids
}

// cycleFocus moves the hover to the next visible node.
func (m *Model) cycleFocus(s *session.Session, step int) {
	ids := visibleIDs(s)
	if len(ids) == 0 {
		m.focus = -1
		s.Hover("")
		return
	}
	// The focused node may have been hidden since; restart from its slot.
	switch {
	case m.focus < 0 && step < 0:
		m.focus = len(ids) - 1
	case m.focus < 0:
		m.focus = 0
	default:
		m.focus = ((m.focus+step)%len(ids) + len(ids)) % len(ids)
	}
	s.Hover(ids[m.focus])
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	s := m.Session()
	if s == nil {
		return
	}
	col, row := msg.X, msg.Y-1
	cols, rows := m.canvas.Grid()
	if col < 0 || row < 0 || col >= cols || row >= rows {
		return
	}
	p := m.canvas.PointOf(col, row)
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		s.View.ZoomAt(s.View.Zoom()*cmview.ZoomStep, p)
	case msg.Button == tea.MouseButtonWheelDown:
		s.View.ZoomAt(s.View.Zoom()/cmview.ZoomStep, p)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		s.Tap(p)
	case msg.Action == tea.MouseActionMotion:
		id, _ := s.View.NodeAt(p)
		if id != s.Hovered() {
			s.Hover(id)
		}
	}
}
