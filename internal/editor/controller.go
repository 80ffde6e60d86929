package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/paulmach/orb"

	"github.com/five82/trailedit/internal/logging"
	"github.com/five82/trailedit/internal/mode"
	"github.com/five82/trailedit/internal/snap"
	"github.com/five82/trailedit/internal/state"
	"github.com/five82/trailedit/internal/trail"
)

// EventKind is the pointer event type.
type EventKind int

const (
	Click EventKind = iota
	MouseDown
	MouseMove
	MouseUp
	ContextMenu
)

func (k EventKind) String() string {
	switch k {
	case Click:
		return "click"
	case MouseDown:
		return "mousedown"
	case MouseMove:
		return "mousemove"
	case MouseUp:
		return "mouseup"
	case ContextMenu:
		return "contextmenu"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// PointerEvent is a renderer pointer event.
type PointerEvent struct {
	Kind     EventKind
	Screen   orb.Point
	Map      orb.Point
	Features []snap.Hit
}

func (e PointerEvent) pointer() snap.Pointer {
	return snap.Pointer{Screen: e.Screen, Map: e.Map, Features: e.Features}
}

// Handler reacts to one pointer event.
type Handler func(PointerEvent)

// Handlers is the set installed for one mode. Nil entries ignore the event.
type Handlers struct {
	OnClick       Handler
	OnMouseDown   Handler
	OnMouseMove   Handler
	OnMouseUp     Handler
	OnContextMenu Handler
}

func (h Handlers) lookup(kind EventKind) Handler {
	switch kind {
	case Click:
		return h.OnClick
	case MouseDown:
		return h.OnMouseDown
	case MouseMove:
		return h.OnMouseMove
	case MouseUp:
		return h.OnMouseUp
	case ContextMenu:
		return h.OnContextMenu
	}
	return nil
}

// Store is the state store as seen by the controller.
type Store interface {
	Dispatch(action state.Action) *state.AppState
	Snapshot() *state.AppState
}

// Sync is the network side of the editor.
type Sync interface {
	ListAll(ctx context.Context) error
	SaveSegment(ctx context.Context) error
	SaveCrossroad(ctx context.Context, node trail.NodeFeature) error
	SaveDestination(ctx context.Context, node trail.NodeFeature) error
	QueryPoiDescriptions(ctx context.Context, id, lang1, lang2 string, cont func(trail.Descriptions, error)) error
}

// Selector is the auto-segment assistant.
type Selector interface {
	Select(ctx context.Context, anchor trail.SnapAnchor)
	Clear()
}

// Options tune the controller.
type Options struct {
	TolerancePx float64
	Languages   [2]string
}

// Controller owns the mode dispatch table.
type Controller struct {
	ctx      context.Context
	store    Store
	sync     Sync
	assist   Selector
	resolver snap.Resolver
	opts     Options
	log      *logging.Logger

	mu     sync.RWMutex
	table  map[mode.Mode]Handlers
	active Handlers

	// Cancels the description query of the previous inspect.
	inspectMu     sync.Mutex
	cancelInspect context.CancelFunc
}

func NewController(ctx context.Context, store Store, syncer Sync, assist Selector, resolver snap.Resolver, log *logging.Logger, opts Options) *Controller {
	if log == nil {
		log = logging.Nop()
	}
	if opts.TolerancePx <= 0 {
		opts.TolerancePx = snap.DefaultTolerancePx
	}
	if opts.Languages[0] == "" {
		opts.Languages = [2]string{"pl", "en"}
	}
	c := &Controller{
		ctx:      ctx,
		store:    store,
		sync:     syncer,
		assist:   assist,
		resolver: resolver,
		opts:     opts,
		log:      log.With("component", "editor"),
	}
	c.table = map[mode.Mode]Handlers{
		mode.Normal: {
			OnClick:       c.inspect,
			OnContextMenu: c.openContextMenu,
		},
		mode.Edit: {
			OnClick:       c.editClick,
			OnMouseMove:   c.hover,
			OnContextMenu: func(PointerEvent) { c.CancelLastPoint() },
		},
		mode.AutoSegment: {
			OnClick:       c.selectNode,
			OnContextMenu: func(PointerEvent) { c.assist.Clear() },
		},
	}
	c.active = c.table[store.Snapshot().Mode]
	return c
}

// Handle routes ev to the active mode's handler.
func (c *Controller) Handle(ev PointerEvent) {
	c.mu.RLock()
	h := c.active.lookup(ev.Kind)
	c.mu.RUnlock()
	if h != nil {
		h(ev)
	}
}

// Mode returns the active mode.
func (c *Controller) Mode() mode.Mode {
	return c.store.Snapshot().Mode
}

// SetMode requests a transition and installs the new mode's handlers in the
// same step. Illegal transitions surface as validation errors and leave the
// handlers untouched.
func (c *Controller) SetMode(m mode.Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.store.Dispatch(state.ModeRequested{Mode: m})
	if next.Mode != m {
		if next.LastError != nil {
			return next.LastError
		}
		return fmt.Errorf("enter %s: %w", m, mode.ErrIllegalTransition)
	}
	c.active = c.table[m]
	c.log.Info("mode", "mode", m.String())
	return nil
}

func (c *Controller) EnterEdit() error        { return c.SetMode(mode.Edit) }
func (c *Controller) EnterAutoSegment() error { return c.SetMode(mode.AutoSegment) }

// Quit leaves the current mode. Work in progress is only discarded after
// confirmation: the confirm overlay opens and Quit reports false.
func (c *Controller) Quit() (left bool) {
	s := c.store.Snapshot()
	if s.Mode == mode.Normal {
		return true
	}
	if !s.Draft.IsZero() || len(s.Selection) > 0 {
		c.store.Dispatch(state.OverlayOpened{Overlay: state.OverlayConfirmQuit, At: s.UI.OverlayAt})
		return false
	}
	return c.SetMode(mode.Normal) == nil
}

// ConfirmQuit discards the work in progress and returns to NORMAL.
func (c *Controller) ConfirmQuit() error {
	c.store.Dispatch(state.OverlayClosed{})
	return c.SetMode(mode.Normal)
}

// CloseOverlay dismisses whatever overlay is open.
func (c *Controller) CloseOverlay() {
	c.store.Dispatch(state.OverlayClosed{})
}

// Submit saves the draft.
func (c *Controller) Submit() error {
	return c.sync.SaveSegment(c.ctx)
}

// CancelLastPoint undoes the last draft vertex.
func (c *Controller) CancelLastPoint() {
	c.store.Dispatch(state.DraftPointPopped{})
}

// Refresh re-requests every collection.
func (c *Controller) Refresh() error {
	return c.sync.ListAll(c.ctx)
}

// OpenNodeForm opens the creation form for kind at the context menu position.
func (c *Controller) OpenNodeForm(kind trail.Kind) {
	overlay := state.OverlayCrossroadForm
	if kind == trail.KindDestination {
		overlay = state.OverlayDestinationForm
	}
	at := c.store.Snapshot().UI.OverlayAt
	c.store.Dispatch(state.OverlayOpened{Overlay: overlay, At: at})
}

// CreateNode saves a new crossroad or destination placed at the form's
// position unless node already carries coordinates.
func (c *Controller) CreateNode(kind trail.Kind, node trail.NodeFeature) error {
	if node.Coordinates == (orb.Point{}) {
		node.Coordinates = c.store.Snapshot().UI.OverlayAt
	}
	if kind == trail.KindDestination {
		return c.sync.SaveDestination(c.ctx, node)
	}
	return c.sync.SaveCrossroad(c.ctx, node)
}

func (c *Controller) resolve(ev PointerEvent) *trail.SnapAnchor {
	s := c.store.Snapshot()
	return c.resolver.Resolve(ev.pointer(), c.opts.TolerancePx, s.Collections)
}

func (c *Controller) inspect(ev PointerEvent) {
	anchor := c.resolve(ev)
	c.store.Dispatch(state.FeatureInspected{Anchor: anchor})

	c.inspectMu.Lock()
	if c.cancelInspect != nil {
		c.cancelInspect()
		c.cancelInspect = nil
	}
	if anchor == nil {
		c.inspectMu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelInspect = cancel
	c.inspectMu.Unlock()

	lang1, lang2 := c.opts.Languages[0], c.opts.Languages[1]
	if err := c.sync.QueryPoiDescriptions(ctx, anchor.FeatureID, lang1, lang2, nil); err != nil {
		c.log.Info("description query not sent", "feature", anchor.FeatureID, "error", err)
	}
}

func (c *Controller) openContextMenu(ev PointerEvent) {
	c.store.Dispatch(state.OverlayOpened{Overlay: state.OverlayContextMenu, At: ev.Map})
}

func (c *Controller) editClick(ev PointerEvent) {
	anchor := c.resolve(ev)
	point := ev.Map
	if anchor != nil {
		point = anchor.Coordinates
	}
	c.store.Dispatch(state.DraftClicked{Point: point, Anchor: anchor})
}

func (c *Controller) hover(ev PointerEvent) {
	p := ev.Map
	c.store.Dispatch(state.HoverMoved{Point: &p})
}

func (c *Controller) selectNode(ev PointerEvent) {
	anchor := c.resolve(ev)
	if anchor == nil {
		return
	}
	c.assist.Select(c.ctx, *anchor)
}
