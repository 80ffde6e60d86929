package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/five82/trailedit/internal/draft"
	"github.com/five82/trailedit/internal/logging"
	"github.com/five82/trailedit/internal/socket"
	"github.com/five82/trailedit/internal/state"
	"github.com/five82/trailedit/internal/trail"
)

// Event names on the wire.
const (
	EventListCrossroads   = "listCrossroads"
	EventListDestinations = "listDestinations"
	EventListPaths        = "listPaths"
	EventCrossroadsData   = "crossroadsData"
	EventDestinationsData = "destinationsData"
	EventPathsData        = "pathsData"
	EventSaveCrossroad    = "saveCrossroad"
	EventSaveDestination  = "saveDestination"
	EventSaveSegment      = "saveSegment"
	EventGetDescriptions  = "getPoiDescriptions"
	EventDescriptions     = "poiDescriptions"
)

var (
	ErrOffline  = errors.New("offline")
	ErrClosed   = errors.New("syncer closed")
	ErrConnLost = errors.New("connection lost before the answer arrived")
)

// Channel is the event channel the syncer drives. *socket.Client satisfies it.
type Channel interface {
	On(event string, h socket.Handler) (off func())
	Emit(event string, data any) error
	EmitWithAck(event string, data any, ack socket.AckFunc) error
}

// Dispatcher is the part of the store the syncer needs.
type Dispatcher interface {
	Dispatch(action state.Action) *state.AppState
	Snapshot() *state.AppState
}

const (
	defaultListRetries = 2
	defaultRetryDelay  = 500 * time.Millisecond
	defaultQueryWait   = 10 * time.Second
)

type Option func(*Syncer)

// WithListRetries bounds how often a failed list emit is retried.
func WithListRetries(n int) Option {
	return func(s *Syncer) {
		if n >= 0 {
			s.listRetries = n
		}
	}
}

// WithRetryDelay sets the pause between list retries.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Syncer) { s.retryDelay = d }
}

// WithQueryTimeout bounds how long a description query waits for its answer.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.queryWait = d
		}
	}
}

// Syncer is the network sync layer.
type Syncer struct {
	ch          Channel
	store       Dispatcher
	log         *logging.Logger
	listRetries int
	retryDelay  time.Duration
	queryWait   time.Duration

	mu      sync.Mutex
	group   *listenerGroup
	queries map[string]func(error)
}

func New(ch Channel, store Dispatcher, log *logging.Logger, opts ...Option) *Syncer {
	if log == nil {
		log = logging.Nop()
	}
	s := &Syncer{
		ch:          ch,
		store:       store,
		log:         log.With("component", "syncer"),
		listRetries: defaultListRetries,
		retryDelay:  defaultRetryDelay,
		queryWait:   defaultQueryWait,
		queries:     make(map[string]func(error)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the push listeners. Calling it again before Close is a
// no-op.
func (s *Syncer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.group != nil {
		return
	}
	g := &listenerGroup{}
	g.add(s.ch.On(EventCrossroadsData, s.nodesHandler(EventCrossroadsData, trail.KindCrossroad)))
	g.add(s.ch.On(EventDestinationsData, s.nodesHandler(EventDestinationsData, trail.KindDestination)))
	g.add(s.ch.On(EventPathsData, s.handlePaths))
	s.group = g
}

// Close removes every listener and abandons outstanding queries.
func (s *Syncer) Close() {
	s.mu.Lock()
	g := s.group
	s.group = nil
	s.mu.Unlock()

	if g != nil {
		g.close()
	}
	s.abandonQueries(ErrClosed)
}

// HandleStatus mirrors the channel's lifecycle into the store. Queries still
// waiting when the connection drops are failed: their answers cannot arrive.
func (s *Syncer) HandleStatus(status socket.Status) {
	switch status {
	case socket.StatusConnected, socket.StatusReconnected:
		s.store.Dispatch(state.OnlineChanged{Online: true})
	default:
		s.abandonQueries(ErrConnLost)
		s.store.Dispatch(state.OnlineChanged{Online: false})
	}
}

func (s *Syncer) abandonQueries(err error) {
	s.mu.Lock()
	queries := s.queries
	s.queries = make(map[string]func(error))
	s.mu.Unlock()

	for _, fail := range queries {
		fail(err)
	}
}

// pendingQueries reports how many description queries await an answer.
func (s *Syncer) pendingQueries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

func (s *Syncer) nodesHandler(event string, kind trail.Kind) socket.Handler {
	return func(data json.RawMessage) {
		var nodes []trail.NodeFeature
		if err := json.Unmarshal(data, &nodes); err != nil {
			s.decodeFailed(event, err)
			return
		}
		for i := range nodes {
			if nodes[i].Kind == "" {
				nodes[i].Kind = kind
			}
		}
		s.log.Debug("collection received", "event", event, "count", len(nodes))
		if kind == trail.KindDestination {
			s.store.Dispatch(state.DestinationsReplaced{Items: nodes})
		} else {
			s.store.Dispatch(state.CrossroadsReplaced{Items: nodes})
		}
	}
}

func (s *Syncer) handlePaths(data json.RawMessage) {
	var paths []trail.PathFeature
	if err := json.Unmarshal(data, &paths); err != nil {
		s.decodeFailed(EventPathsData, err)
		return
	}
	s.log.Debug("collection received", "event", EventPathsData, "count", len(paths))
	s.store.Dispatch(state.PathsReplaced{Items: paths})
}

func (s *Syncer) decodeFailed(event string, err error) {
	s.log.Warn("decode failed", "event", event, "error", err)
	s.store.Dispatch(state.ErrorRaised{Failure: state.Failure{
		Category: state.CategoryConnectivity,
		Err:      fmt.Errorf("decode %s: %w", event, err),
	}})
}

func (s *Syncer) ListCrossroads(ctx context.Context) error {
	return s.list(ctx, EventListCrossroads)
}

func (s *Syncer) ListDestinations(ctx context.Context) error {
	return s.list(ctx, EventListDestinations)
}

func (s *Syncer) ListPaths(ctx context.Context) error {
	return s.list(ctx, EventListPaths)
}

// ListAll requests every collection and reports the combined failures.
func (s *Syncer) ListAll(ctx context.Context) error {
	if err := s.requireOnline(); err != nil {
		return err
	}
	return errors.Join(
		s.ListCrossroads(ctx),
		s.ListDestinations(ctx),
		s.ListPaths(ctx),
	)
}

func (s *Syncer) list(ctx context.Context, event string) error {
	if err := s.requireOnline(); err != nil {
		return err
	}
	var err error
	for attempt := 0; attempt <= s.listRetries; attempt++ {
		if attempt > 0 {
			s.log.Info("retrying list", "event", event, "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
		if err = s.ch.Emit(event, nil); err == nil {
			return nil
		}
	}
	err = fmt.Errorf("%s: %w", event, err)
	s.raise(state.CategoryConnectivity, err)
	return err
}

// SaveSegment sends the current draft and blocks further draft edits until
// the server answers.
func (s *Syncer) SaveSegment(ctx context.Context) error {
	if err := s.requireOnline(); err != nil {
		return err
	}
	snap := s.store.Snapshot()
	if _, err := draft.BeginSave(snap.Draft); err != nil {
		s.raise(state.CategoryValidation, err)
		return err
	}

	next := s.store.Dispatch(state.SaveRequested{})
	generation := next.Draft.Generation
	path, err := draft.Path(next.Draft, ulid.Make().String())
	if err != nil {
		s.store.Dispatch(state.SaveAcknowledged{Generation: generation, Err: err})
		return err
	}

	err = s.ch.EmitWithAck(EventSaveSegment, path, func(ackErr error) {
		if ackErr != nil {
			s.log.Warn("segment rejected", "path", path.ID, "error", ackErr)
		} else {
			s.log.Info("segment saved", "path", path.ID, "points", len(path.Coordinates))
		}
		s.store.Dispatch(state.SaveAcknowledged{Generation: generation, Path: path, Err: ackErr})
	})
	if err != nil {
		err = fmt.Errorf("%s: %w", EventSaveSegment, err)
		s.store.Dispatch(state.SaveAcknowledged{Generation: generation, Path: path, Err: err})
		return err
	}
	return nil
}

func (s *Syncer) SaveCrossroad(ctx context.Context, node trail.NodeFeature) error {
	node.Kind = trail.KindCrossroad
	return s.saveNode(EventSaveCrossroad, node)
}

func (s *Syncer) SaveDestination(ctx context.Context, node trail.NodeFeature) error {
	node.Kind = trail.KindDestination
	return s.saveNode(EventSaveDestination, node)
}

func (s *Syncer) saveNode(event string, node trail.NodeFeature) error {
	if err := node.Validate(); err != nil {
		s.raise(state.CategoryValidation, err)
		return err
	}
	if err := s.requireOnline(); err != nil {
		return err
	}
	if node.ID == "" {
		node.ID = ulid.Make().String()
	}
	err := s.ch.EmitWithAck(event, node, func(ackErr error) {
		s.store.Dispatch(state.NodeSaveAcknowledged{Node: node, Err: ackErr})
	})
	if err != nil {
		err = fmt.Errorf("%s: %w", event, err)
		s.store.Dispatch(state.NodeSaveAcknowledged{Node: node, Err: err})
		return err
	}
	return nil
}

type descriptionsRequest struct {
	ID        string `json:"id"`
	Lang1     string `json:"lang1"`
	Lang2     string `json:"lang2"`
	RequestID string `json:"requestId"`
}

// QueryPoiDescriptions asks for the descriptions of node id in two languages.
// The answer is dispatched to the store and passed to cont when non-nil. The
// listener is dropped after the first matching answer, when ctx ends, when
// the query timeout passes or when the connection drops.
func (s *Syncer) QueryPoiDescriptions(ctx context.Context, id, lang1, lang2 string, cont func(trail.Descriptions, error)) error {
	if err := s.requireOnline(); err != nil {
		return err
	}
	req := descriptionsRequest{ID: id, Lang1: lang1, Lang2: lang2, RequestID: ulid.Make().String()}
	ctx, cancel := context.WithTimeout(ctx, s.queryWait)

	var (
		once sync.Once
		off  func()
		done = make(chan struct{})
	)
	finish := func(d trail.Descriptions, err error) {
		once.Do(func() {
			close(done)
			cancel()
			off()
			s.mu.Lock()
			delete(s.queries, req.RequestID)
			s.mu.Unlock()

			if err == nil || !errors.Is(err, context.Canceled) {
				s.store.Dispatch(state.DescriptionsLoaded{Descriptions: d, Err: err})
			}
			if cont != nil {
				cont(d, err)
			}
		})
	}

	off = s.ch.On(EventDescriptions, func(data json.RawMessage) {
		var d trail.Descriptions
		if err := json.Unmarshal(data, &d); err != nil {
			s.log.Warn("decode failed", "event", EventDescriptions, "error", err)
			return
		}
		if d.RequestID != req.RequestID || d.ID != id {
			return
		}
		finish(d, nil)
	})

	s.mu.Lock()
	s.queries[req.RequestID] = func(err error) { finish(trail.Descriptions{ID: id}, err) }
	s.mu.Unlock()

	if err := s.ch.Emit(EventGetDescriptions, req); err != nil {
		err = fmt.Errorf("%s: %w", EventGetDescriptions, err)
		finish(trail.Descriptions{ID: id}, err)
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			err := ctx.Err()
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("%s %s: %w", EventGetDescriptions, id, err)
			}
			finish(trail.Descriptions{ID: id}, err)
		case <-done:
		}
	}()
	return nil
}

func (s *Syncer) requireOnline() error {
	if s.store.Snapshot().Connection.IsOnline {
		return nil
	}
	s.raise(state.CategoryConnectivity, ErrOffline)
	return ErrOffline
}

func (s *Syncer) raise(category state.Category, err error) {
	s.store.Dispatch(state.ErrorRaised{Failure: state.Failure{Category: category, Err: err}})
}
