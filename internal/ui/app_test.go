package ui

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"

	"github.com/five82/trailedit/internal/editor"
	"github.com/five82/trailedit/internal/mode"
	"github.com/five82/trailedit/internal/prefs"
	"github.com/five82/trailedit/internal/session"
	"github.com/five82/trailedit/internal/snap"
	"github.com/five82/trailedit/internal/state"
	"github.com/five82/trailedit/internal/trail"
)

type fakeEditor struct {
	mu      sync.Mutex
	calls   []string
	events  []editor.PointerEvent
	created []trail.NodeFeature
	quit    bool
	err     error
}

func (f *fakeEditor) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeEditor) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (f *fakeEditor) Handle(ev editor.PointerEvent) {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
}
func (f *fakeEditor) EnterEdit() error        { f.record("EnterEdit"); return f.err }
func (f *fakeEditor) EnterAutoSegment() error { f.record("EnterAutoSegment"); return f.err }
func (f *fakeEditor) Quit() bool              { f.record("Quit"); return f.quit }
func (f *fakeEditor) ConfirmQuit() error      { f.record("ConfirmQuit"); return nil }
func (f *fakeEditor) CloseOverlay()           { f.record("CloseOverlay") }
func (f *fakeEditor) Submit() error           { f.record("Submit"); return f.err }
func (f *fakeEditor) CancelLastPoint()        { f.record("CancelLastPoint") }
func (f *fakeEditor) Refresh() error          { f.record("Refresh"); return nil }
func (f *fakeEditor) OpenNodeForm(kind trail.Kind) {
	f.record("OpenNodeForm:" + string(kind))
}
func (f *fakeEditor) CreateNode(kind trail.Kind, node trail.NodeFeature) error {
	f.record("CreateNode:" + string(kind))
	f.mu.Lock()
	f.created = append(f.created, node)
	f.mu.Unlock()
	return nil
}

type fakeStore struct{ s *state.AppState }

func (f *fakeStore) Snapshot() *state.AppState { return f.s }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func newTestModel(t *testing.T, opts Options) (Model, *fakeEditor, *fakeStore) {
	t.Helper()
	ed := &fakeEditor{}
	st := &fakeStore{s: state.Initial()}
	opts.Editor = ed
	opts.Store = st
	if opts.Surface == nil {
		opts.Surface = NewSurface(flat{}, 10)
	}
	m := New(opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), ed, st
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// withState adopts s as the current snapshot.
func withState(m Model, st *fakeStore, s *state.AppState) Model {
	st.s = s
	m, _ = update(m, snapshotMsg{state: s})
	return m
}

func TestModeKeysRunThroughEditor(t *testing.T) {
	m, ed, _ := newTestModel(t, Options{})

	_, cmd := update(m, runes("e"))
	if cmd == nil {
		t.Fatal("edit key returned no command")
	}
	if msg, ok := cmd().(commandDoneMsg); !ok || msg.err != nil {
		t.Fatalf("edit command = %#v", msg)
	}
	if !ed.called("EnterEdit") {
		t.Fatal("EnterEdit not called")
	}

	ed.err = mode.ErrIllegalTransition
	m, cmd = update(m, runes("a"))
	m, _ = update(m, cmd())
	if !ed.called("EnterAutoSegment") {
		t.Fatal("EnterAutoSegment not called")
	}
	if !strings.Contains(m.notice, "illegal mode transition") {
		t.Fatalf("notice = %q", m.notice)
	}
}

func TestQuitKey(t *testing.T) {
	m, ed, st := newTestModel(t, Options{})

	_, cmd := update(m, runes("q"))
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q in NORMAL must quit the program")
	}

	m = withState(m, st, &state.AppState{Mode: mode.Edit})
	_, cmd = update(m, runes("q"))
	if !ed.called("Quit") {
		t.Fatal("q in EDIT must leave the mode through the editor")
	}
	if _, ok := cmd().(tea.QuitMsg); ok {
		t.Fatal("q in EDIT must not quit the program")
	}
}

func TestClickAtCursorCarriesHits(t *testing.T) {
	surface := NewSurface(flat{}, 10)
	m, ed, st := newTestModel(t, Options{Surface: surface})

	surface.SetLayerData(snap.LayerCrossroads, editor.NodeLayer([]trail.NodeFeature{
		{ID: "c1", Kind: trail.KindCrossroad, Name: "Pass", Coordinates: orb.Point{19.95, 49.23}},
	}))
	m = withState(m, st, state.Initial())
	if m.cursor != (orb.Point{19.95, 49.23}) {
		t.Fatalf("cursor = %v, want centered on the network", m.cursor)
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(ed.events) != 1 {
		t.Fatalf("events = %d, want 1", len(ed.events))
	}
	ev := ed.events[0]
	if ev.Kind != editor.Click || ev.Map != m.cursor {
		t.Fatalf("event = %+v", ev)
	}
	if len(ev.Features) != 1 || ev.Features[0].FeatureID != "c1" {
		t.Fatalf("features = %+v, want c1", ev.Features)
	}
	if ev.Screen != surface.Project(m.cursor) {
		t.Fatalf("screen = %v", ev.Screen)
	}
}

func TestCursorMovesEmitMouseMove(t *testing.T) {
	m, ed, _ := newTestModel(t, Options{Zoom: 16})
	start := m.cursor

	m, _ = update(m, runes("l"))
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyUp})
	if len(ed.events) != 2 {
		t.Fatalf("events = %d, want 2", len(ed.events))
	}
	for _, ev := range ed.events {
		if ev.Kind != editor.MouseMove {
			t.Fatalf("event kind = %v, want mousemove", ev.Kind)
		}
	}
	if !(m.cursor[0] > start[0]) || !(m.cursor[1] > start[1]) {
		t.Fatalf("cursor %v did not move north east of %v", m.cursor, start)
	}

	_, _ = update(m, runes("m"))
	if last := ed.events[len(ed.events)-1]; last.Kind != editor.ContextMenu {
		t.Fatalf("m produced %v, want contextmenu", last.Kind)
	}
}

func TestConfirmOverlay(t *testing.T) {
	m, ed, st := newTestModel(t, Options{})
	m = withState(m, st, &state.AppState{Mode: mode.Edit, UI: state.UI{Overlay: state.OverlayConfirmQuit}})

	if !strings.Contains(m.View(), "Discard the work in progress?") {
		t.Fatal("confirm overlay not rendered")
	}

	_, _ = update(m, runes("n"))
	if !ed.called("CloseOverlay") {
		t.Fatal("n must close the overlay")
	}
	_, cmd := update(m, runes("y"))
	cmd()
	if !ed.called("ConfirmQuit") {
		t.Fatal("y must confirm")
	}
	if ed.called("EnterEdit") {
		t.Fatal("overlay keys must not reach the global bindings")
	}
}

func TestContextMenuOpensForms(t *testing.T) {
	m, ed, st := newTestModel(t, Options{})
	m = withState(m, st, &state.AppState{UI: state.UI{Overlay: state.OverlayContextMenu}})

	_, _ = update(m, runes("d"))
	if !ed.called("OpenNodeForm:destination") {
		t.Fatalf("calls = %v", ed.calls)
	}
	_, _ = update(m, runes("c"))
	if !ed.called("OpenNodeForm:crossroad") {
		t.Fatalf("calls = %v", ed.calls)
	}
}

func TestNodeFormFollowsOverlay(t *testing.T) {
	m, ed, st := newTestModel(t, Options{Prefs: prefs.Prefs{Theme: "Slate", PrimaryLanguage: "pl", SecondaryLanguage: "en"}})
	m = withState(m, st, &state.AppState{UI: state.UI{Overlay: state.OverlayCrossroadForm}})
	if m.form == nil {
		t.Fatal("form not opened for the crossroad overlay")
	}

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("an empty name must not be submitted")
	}
	if f := m.form.(*nodeForm); !errors.Is(f.err, trail.ErrNameRequired) {
		t.Fatalf("form error = %v", f.err)
	}

	for _, r := range "Pass" {
		m, _ = update(m, runes(string(r)))
	}
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	for _, r := range "Przełęcz" {
		m, _ = update(m, runes(string(r)))
	}
	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("valid form produced no command")
	}
	cmd()
	if len(ed.created) != 1 {
		t.Fatalf("created = %d, want 1", len(ed.created))
	}
	node := ed.created[0]
	if node.Name != "Pass" || node.Kind != trail.KindCrossroad || node.Descriptions["pl"].Short != "Przełęcz" {
		t.Fatalf("node = %+v", node)
	}
	if _, ok := node.Descriptions["en"]; ok {
		t.Fatal("empty secondary description must be omitted")
	}

	m = withState(m, st, state.Initial())
	if m.form != nil {
		t.Fatal("form must close with the overlay")
	}
}

func TestNodeFormEscape(t *testing.T) {
	m, ed, st := newTestModel(t, Options{})
	m = withState(m, st, &state.AppState{UI: state.UI{Overlay: state.OverlayDestinationForm}})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.form != nil || !ed.called("CloseOverlay") {
		t.Fatal("esc must close the form and the overlay")
	}
}

func TestEditingKeys(t *testing.T) {
	m, ed, st := newTestModel(t, Options{})
	m = withState(m, st, &state.AppState{Mode: mode.Edit})

	_, _ = update(m, tea.KeyMsg{Type: tea.KeyBackspace})
	if !ed.called("CancelLastPoint") {
		t.Fatal("backspace must undo")
	}
	_, cmd := update(m, runes("s"))
	cmd()
	if !ed.called("Submit") {
		t.Fatal("s must submit")
	}
	_, cmd = update(m, runes("r"))
	cmd()
	if !ed.called("Refresh") {
		t.Fatal("r must reload")
	}
}

func TestThemeKeySavesPrefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	m, _, _ := newTestModel(t, Options{PrefsPath: path, Prefs: prefs.Prefs{Theme: "Nightfox", PrimaryLanguage: "de", SecondaryLanguage: "en"}})

	m, _ = update(m, runes("T"))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	saved, err := prefs.Load(path)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.Theme != "Kanagawa" || saved.PrimaryLanguage != "de" {
		t.Fatalf("saved prefs = %+v", saved)
	}
}

func TestHeaderShowsTokenRoles(t *testing.T) {
	m, _, st := newTestModel(t, Options{})
	m = withState(m, st, &state.AppState{
		Connection: session.ConnectionState{AuthToken: "t", Roles: []string{"editor", "admin"}, IsOnline: true},
	})
	if out := m.View(); !strings.Contains(out, "editor,admin") || !strings.Contains(out, "ONLINE") {
		t.Fatalf("header missing roles or status:\n%s", out)
	}
}

func TestViewShowsModeAndError(t *testing.T) {
	m, _, st := newTestModel(t, Options{})
	m = withState(m, st, &state.AppState{
		Mode:      mode.Edit,
		LastError: &state.Failure{Category: state.CategoryConnectivity, Err: state.ErrOffline},
	})

	out := m.View()
	for _, want := range []string{"EDIT", "OFFLINE", "connection lost", "Segment"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = update(m, runes("?"))
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatal("help overlay not rendered")
	}
	m, _ = update(m, runes("x"))
	if m.showHelp {
		t.Fatal("any key must close help")
	}
}
