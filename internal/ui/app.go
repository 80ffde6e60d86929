package ui

import (
	"context"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"

	"github.com/five82/trailedit/internal/editor"
	"github.com/five82/trailedit/internal/logtail"
	"github.com/five82/trailedit/internal/mode"
	"github.com/five82/trailedit/internal/prefs"
	"github.com/five82/trailedit/internal/snap"
	"github.com/five82/trailedit/internal/state"
	"github.com/five82/trailedit/internal/trail"
)

// Editor is the controller surface the console drives.
type Editor interface {
	Handle(ev editor.PointerEvent)
	EnterEdit() error
	EnterAutoSegment() error
	Quit() bool
	ConfirmQuit() error
	CloseOverlay()
	Submit() error
	CancelLastPoint()
	Refresh() error
	OpenNodeForm(kind trail.Kind)
	CreateNode(kind trail.Kind, node trail.NodeFeature) error
}

// Snapshotter exposes the current state.
type Snapshotter interface {
	Snapshot() *state.AppState
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Editor    Editor
	Store     Snapshotter
	Surface   *Surface
	Reconnect func() error
	LogPath   string
	Zoom      float64
	Prefs     prefs.Prefs
	PrefsPath string
	Tick      time.Duration
}

// Model is the root console state for Bubble Tea.
type Model struct {
	ctx       context.Context
	editor    Editor
	store     Snapshotter
	surface   *Surface
	reconnect func() error
	logPath   string
	prefs     prefs.Prefs
	prefsPath string
	tick      time.Duration

	keys   keyMap
	theme  Theme
	width  int
	height int
	ready  bool

	snapshot *state.AppState
	view     editor.View

	// Map cursor in lon/lat.
	cursor       orb.Point
	cursorPlaced bool
	degPerPx     float64

	showHelp bool
	showLogs bool
	logs     []logtail.Entry
	logView  viewport.Model
	lastLogs time.Time

	form   Modal
	notice string
}

// New creates the console model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}
	zoom := opts.Zoom
	if zoom <= 0 {
		zoom = snap.DefaultZoom
	}
	p := opts.Prefs
	if p.Theme == "" {
		p = prefs.Defaults()
	}
	surface := opts.Surface
	if surface == nil {
		surface = NewSurface(snap.WebMercator{Zoom: zoom}, 0)
	}

	m := Model{
		ctx:       ctx,
		editor:    opts.Editor,
		store:     opts.Store,
		surface:   surface,
		reconnect: opts.Reconnect,
		logPath:   opts.LogPath,
		prefs:     p,
		prefsPath: opts.PrefsPath,
		tick:      tick,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(p.Theme),
		degPerPx:  360 / (256 * math.Pow(2, zoom)),
		snapshot:  state.Initial(),
	}
	m.view = editor.NewView(m.snapshot)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.tick), fetchSnapshotCmd(m.store))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLogView()
		m.ready = true
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{fetchSnapshotCmd(m.store), tickCmd(m.tick)}
		if m.showLogs && time.Since(m.lastLogs) >= LogRefreshInterval {
			m.lastLogs = time.Now()
			cmds = append(cmds, readLogsCmd(m.logPath))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		return m.applySnapshot(msg.state)

	case logsMsg:
		m.logs = msg.entries
		m.refreshLogView()
		return m, nil

	case commandDoneMsg:
		m.notice = ""
		if msg.err != nil {
			m.notice = msg.op + ": " + msg.err.Error()
		}
		return m, fetchSnapshotCmd(m.store)
	}

	if m.form != nil {
		var cmd tea.Cmd
		m.form, cmd, _ = m.form.Update(msg, m.keys)
		return m, cmd
	}
	return m, nil
}

// applySnapshot adopts s and keeps the form modal in step with the overlay.
func (m Model) applySnapshot(s *state.AppState) (tea.Model, tea.Cmd) {
	if s == nil {
		return m, nil
	}
	m.snapshot = s
	m.view = editor.NewView(s)

	if !m.cursorPlaced {
		if c, ok := m.surface.Center(); ok {
			m.cursor = c
			m.cursorPlaced = true
		}
	}

	switch m.view.Overlay {
	case state.OverlayCrossroadForm, state.OverlayDestinationForm:
		if m.form == nil {
			kind := trail.KindCrossroad
			if m.view.Overlay == state.OverlayDestinationForm {
				kind = trail.KindDestination
			}
			m.form = newNodeForm(kind, m.prefs.Languages(), m.editor)
		}
	default:
		m.form = nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.form != nil {
		return m.form.View(m.theme, m.width, m.height)
	}
	switch m.view.Overlay {
	case state.OverlayConfirmQuit:
		return m.renderConfirm()
	case state.OverlayContextMenu:
		return m.renderContextMenu()
	}
	return m.renderMain()
}

// handleKey processes keyboard input. Overlays take precedence over the
// global bindings.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.form != nil {
		form, cmd, closed := m.form.Update(msg, m.keys)
		m.form = form
		if closed {
			m.form = nil
			m.editor.CloseOverlay()
			return m, fetchSnapshotCmd(m.store)
		}
		return m, cmd
	}

	switch m.view.Overlay {
	case state.OverlayConfirmQuit:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m, runCmd("leave", m.editor.ConfirmQuit)
		case key.Matches(msg, m.keys.Cancel):
			m.editor.CloseOverlay()
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil
	case state.OverlayContextMenu:
		switch {
		case key.Matches(msg, m.keys.NewCrossroad):
			m.editor.OpenNodeForm(trail.KindCrossroad)
		case key.Matches(msg, m.keys.NewDest):
			m.editor.OpenNodeForm(trail.KindDestination)
		case msg.String() == "esc":
			m.editor.CloseOverlay()
		default:
			return m, nil
		}
		return m, fetchSnapshotCmd(m.store)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		if m.prefsPath != "" {
			_ = prefs.Save(m.prefsPath, m.prefs)
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleLogs):
		m.showLogs = !m.showLogs
		m.resizeLogView()
		if m.showLogs {
			m.lastLogs = time.Now()
			return m, readLogsCmd(m.logPath)
		}
		return m, nil

	case key.Matches(msg, m.keys.Reconnect):
		if m.reconnect == nil {
			return m, nil
		}
		return m, runCmd("reconnect", m.reconnect)

	case key.Matches(msg, m.keys.Quit):
		if m.view.Mode == mode.Normal {
			return m, tea.Quit
		}
		m.editor.Quit()
		return m, fetchSnapshotCmd(m.store)

	case key.Matches(msg, m.keys.Leave):
		if m.view.Mode != mode.Normal {
			m.editor.Quit()
		}
		return m, fetchSnapshotCmd(m.store)

	case key.Matches(msg, m.keys.Edit):
		return m, runCmd("edit", m.editor.EnterEdit)

	case key.Matches(msg, m.keys.AutoSegment):
		return m, runCmd("auto segment", m.editor.EnterAutoSegment)

	case key.Matches(msg, m.keys.Save):
		return m, runCmd("save", m.editor.Submit)

	case key.Matches(msg, m.keys.Undo):
		m.editor.CancelLastPoint()
		return m, fetchSnapshotCmd(m.store)

	case key.Matches(msg, m.keys.Refresh):
		return m, runCmd("reload", m.editor.Refresh)

	case key.Matches(msg, m.keys.Click):
		m.editor.Handle(m.pointer(editor.Click))
		return m, fetchSnapshotCmd(m.store)

	case key.Matches(msg, m.keys.ContextMenu):
		m.editor.Handle(m.pointer(editor.ContextMenu))
		return m, fetchSnapshotCmd(m.store)

	case key.Matches(msg, m.keys.Center):
		if c, ok := m.surface.Center(); ok {
			m.cursor = c
			m.cursorPlaced = true
		}
		return m, m.moved()
	}

	if dx, dy, ok := m.cursorDelta(msg); ok {
		m.cursor = orb.Point{m.cursor[0] + dx*m.degPerPx, clampLat(m.cursor[1] + dy*m.degPerPx)}
		m.cursorPlaced = true
		return m, m.moved()
	}
	return m, nil
}

// cursorDelta maps movement keys to a pixel offset (east, north).
func (m Model) cursorDelta(msg tea.KeyMsg) (float64, float64, bool) {
	switch {
	case key.Matches(msg, m.keys.Up):
		return 0, cursorStepPx, true
	case key.Matches(msg, m.keys.Down):
		return 0, -cursorStepPx, true
	case key.Matches(msg, m.keys.Left):
		return -cursorStepPx, 0, true
	case key.Matches(msg, m.keys.Right):
		return cursorStepPx, 0, true
	case key.Matches(msg, m.keys.FastUp):
		return 0, cursorFastStepPx, true
	case key.Matches(msg, m.keys.FastDown):
		return 0, -cursorFastStepPx, true
	case key.Matches(msg, m.keys.FastLeft):
		return -cursorFastStepPx, 0, true
	case key.Matches(msg, m.keys.FastRight):
		return cursorFastStepPx, 0, true
	}
	return 0, 0, false
}

// moved reports the new cursor position as a pointer move.
func (m Model) moved() tea.Cmd {
	m.editor.Handle(m.pointer(editor.MouseMove))
	return fetchSnapshotCmd(m.store)
}

// pointer builds the event a mouse at the cursor would produce.
func (m Model) pointer(kind editor.EventKind) editor.PointerEvent {
	screen := m.surface.Project(m.cursor)
	return editor.PointerEvent{
		Kind:     kind,
		Screen:   screen,
		Map:      m.cursor,
		Features: m.surface.HitTest(screen),
	}
}

func clampLat(lat float64) float64 {
	const limit = 85.05112878
	return math.Max(-limit, math.Min(limit, lat))
}

func (m *Model) resizeLogView() {
	h := m.height / 3
	if h < 3 {
		h = 3
	}
	m.logView = viewport.New(m.width, h)
	m.refreshLogView()
}

// Messages

type tickMsg time.Time

type snapshotMsg struct{ state *state.AppState }

type logsMsg struct{ entries []logtail.Entry }

type commandDoneMsg struct {
	op  string
	err error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store Snapshotter) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return snapshotMsg{state: store.Snapshot()}
	}
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := logtail.Tail(path, LogTailLines, LogMinLevel)
		if err != nil {
			entries = []logtail.Entry{{Level: "ERROR", Message: err.Error()}}
		}
		return logsMsg{entries: entries}
	}
}

// runCmd runs a possibly blocking editor call off the update loop.
func runCmd(op string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg{op: op, err: fn()}
	}
}

func createNodeCmd(ed Editor, kind trail.Kind, node trail.NodeFeature) tea.Cmd {
	return runCmd("create "+string(kind), func() error {
		return ed.CreateNode(kind, node)
	})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
