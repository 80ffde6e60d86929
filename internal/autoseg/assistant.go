// Package autoseg builds a segment between two selected nodes by asking a
// routing service for the geometry.
package autoseg

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/five82/trailedit/internal/logging"
	"github.com/five82/trailedit/internal/state"
	"github.com/five82/trailedit/internal/trail"
)

var ErrNoRoute = errors.New("no route between the selected nodes")

// Router returns the line connecting two coordinates.
type Router interface {
	Route(ctx context.Context, from, to orb.Point) (orb.LineString, error)
}

// Dispatcher is the part of the store the assistant needs.
type Dispatcher interface {
	Dispatch(action state.Action) *state.AppState
	Snapshot() *state.AppState
}

const defaultRouteTimeout = 10 * time.Second

// Assistant accumulates node selections and stages the routed draft.
type Assistant struct {
	router  Router
	store   Dispatcher
	log     *logging.Logger
	timeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(router Router, store Dispatcher, log *logging.Logger) *Assistant {
	if log == nil {
		log = logging.Nop()
	}
	return &Assistant{
		router:  router,
		store:   store,
		log:     log.With("component", "autoseg"),
		timeout: defaultRouteTimeout,
	}
}

// Select adds anchor to the selection. The second distinct node starts a
// routing request in the background; its result is dispatched tagged with the
// selection generation so an abandoned selection ignores it.
func (a *Assistant) Select(ctx context.Context, anchor trail.SnapAnchor) {
	prev := a.store.Snapshot()
	next := a.store.Dispatch(state.NodeSelected{Anchor: anchor})
	if next == prev || len(next.Selection) < state.MaxSelection {
		return
	}

	from, to := next.Selection[0], next.Selection[1]
	generation := next.SelectionGeneration

	routeCtx, cancel := context.WithTimeout(ctx, a.timeout)
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.cancel = cancel
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()

		line, err := a.route(routeCtx, from, to)
		if errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			a.log.Warn("routing failed", "from", from.FeatureID, "to", to.FeatureID, "error", err)
			a.store.Dispatch(state.RoutingFailed{SelectionGeneration: generation, Err: err})
			return
		}
		a.log.Info("route staged", "from", from.FeatureID, "to", to.FeatureID, "points", len(line))
		a.store.Dispatch(state.DraftStaged{
			Line:                line,
			Start:               from,
			End:                 to,
			SelectionGeneration: generation,
		})
	}()
}

// Clear drops the selection and any routed draft, abandoning an in-flight
// request.
func (a *Assistant) Clear() {
	a.store.Dispatch(state.SelectionCleared{})
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.mu.Unlock()
}

// Wait blocks until background routing requests have finished.
func (a *Assistant) Wait() {
	a.wg.Wait()
}

func (a *Assistant) route(ctx context.Context, from, to trail.SnapAnchor) (orb.LineString, error) {
	line, err := a.router.Route(ctx, from.Coordinates, to.Coordinates)
	if err != nil {
		return nil, err
	}
	return anchorLine(line, from.Coordinates, to.Coordinates)
}

// anchorLine makes the routed line start and end exactly on the nodes; routers
// snap to their own graph, which is usually a few metres off.
func anchorLine(line orb.LineString, from, to orb.Point) (orb.LineString, error) {
	if len(line) == 0 {
		return nil, ErrNoRoute
	}
	out := make(orb.LineString, 0, len(line)+2)
	if !line[0].Equal(from) {
		out = append(out, from)
	}
	out = append(out, line...)
	if !out[len(out)-1].Equal(to) {
		out = append(out, to)
	}
	return out, nil
}
