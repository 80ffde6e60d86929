// Package socket is the event-channel client the sync layer talks through.
//
// A Client owns one logical WebSocket connection to the backend. Messages are
// JSON envelopes carrying an event name and a payload. Requests that expect an
// acknowledgement carry a ULID generated for that call; the server answers
// with an envelope naming the same ULID. Pushes are delivered to handlers
// registered with On, which returns the function that removes the handler.
//
// When the connection drops unexpectedly the client retries a bounded number
// of times with capped exponential backoff, reusing the latest token. It never
// replays requests: callers that need fresh data after a reconnect ask again.
package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/five82/trailedit/internal/logging"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrDisconnected = errors.New("connection lost before acknowledgement")
	ErrAckTimeout   = errors.New("acknowledgement timed out")
	ErrSendTimeout  = errors.New("send timed out")
)

// Status is a connection lifecycle notification.
type Status int

const (
	StatusConnected Status = iota
	StatusDisconnected
	StatusReconnected
	StatusGaveUp
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusReconnected:
		return "reconnected"
	case StatusGaveUp:
		return "gave-up"
	case StatusClosed:
		return "closed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Handler receives the raw payload of a pushed event.
type Handler func(data json.RawMessage)

// AckFunc receives the server's verdict for an acknowledged request.
type AckFunc func(err error)

// AckError is a rejection reported by the server.
type AckError struct {
	Event   string
	Message string
}

func (e *AckError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Event, e.Message)
}

type Settings struct {
	HandshakeTimeout  time.Duration
	WriteTimeout      time.Duration
	ReadTimeout       time.Duration
	PingInterval      time.Duration
	AckTimeout        time.Duration
	ReconnectAttempts int
	ReconnectBase     time.Duration
	SendBufferSize    int
}

func DefaultSettings() *Settings {
	return &Settings{
		HandshakeTimeout:  5 * time.Second,
		WriteTimeout:      5 * time.Second,
		ReadTimeout:       30 * time.Second,
		PingInterval:      10 * time.Second,
		AckTimeout:        15 * time.Second,
		ReconnectAttempts: 5,
		ReconnectBase:     time.Second,
		SendBufferSize:    16,
	}
}

type envelope struct {
	Event string          `json:"event,omitempty"`
	Ack   string          `json:"ack,omitempty"`
	AckOf string          `json:"ackOf,omitempty"`
	Error *string         `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type handlerEntry struct {
	fn Handler
}

type statusEntry struct {
	fn func(Status)
}

type pendingAck struct {
	event string
	fn    AckFunc
	timer *time.Timer
}

// connection is one physical WebSocket session.
type connection struct {
	ws     *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
}

// Client is the event-channel client. It is safe for concurrent use.
type Client struct {
	url      string
	dialer   *websocket.Dialer
	settings *Settings
	log      *logging.Logger

	// life orders Disconnect against a reconnect being attached.
	life sync.Mutex

	mu       sync.Mutex
	token    string
	current  *connection
	stopRun  context.CancelFunc
	handlers map[string]map[*handlerEntry]struct{}
	statuses map[*statusEntry]struct{}
	acks     map[string]*pendingAck
}

// NewClient builds a client for url (ws:// or wss://). A nil settings uses
// DefaultSettings.
func NewClient(url string, log *logging.Logger, settings *Settings) (*Client, error) {
	u, err := normalizeURL(url)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = DefaultSettings()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		url:      u,
		dialer:   &websocket.Dialer{HandshakeTimeout: settings.HandshakeTimeout, Proxy: http.ProxyFromEnvironment},
		settings: settings,
		log:      log.With("component", "socket"),
		handlers: make(map[string]map[*handlerEntry]struct{}),
		statuses: make(map[*statusEntry]struct{}),
		acks:     make(map[string]*pendingAck),
	}, nil
}

// SetToken replaces the bearer token used for the next dial.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// connected reports whether a physical connection is currently up.
func (c *Client) connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Connect dials the backend and keeps the connection alive until ctx ends or
// Disconnect is called. An existing connection is replaced, never stacked.
func (c *Client) Connect(ctx context.Context) error {
	c.Disconnect()

	runCtx, cancel := context.WithCancel(ctx)
	conn, err := c.dial(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("connect %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.stopRun = cancel
	c.mu.Unlock()

	c.attach(conn)
	c.notify(StatusConnected)
	go c.run(runCtx, conn)
	return nil
}

// Disconnect closes the connection without reconnecting.
func (c *Client) Disconnect() {
	c.life.Lock()
	defer c.life.Unlock()

	c.mu.Lock()
	stop := c.stopRun
	c.stopRun = nil
	conn := c.current
	c.mu.Unlock()

	if stop == nil {
		return
	}
	stop()
	if conn != nil {
		conn.cancel()
		_ = conn.ws.Close()
		c.detach(conn)
	}
	c.notify(StatusClosed)
}

// On registers h for event and returns the function removing it.
func (c *Client) On(event string, h Handler) (off func()) {
	entry := &handlerEntry{fn: h}
	c.mu.Lock()
	set, ok := c.handlers[event]
	if !ok {
		set = make(map[*handlerEntry]struct{})
		c.handlers[event] = set
	}
	set[entry] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if set, ok := c.handlers[event]; ok {
				delete(set, entry)
				if len(set) == 0 {
					delete(c.handlers, event)
				}
			}
		})
	}
}

// OnStatus registers fn for lifecycle changes and returns its remover.
func (c *Client) OnStatus(fn func(Status)) (off func()) {
	entry := &statusEntry{fn: fn}
	c.mu.Lock()
	c.statuses[entry] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.statuses, entry)
			c.mu.Unlock()
		})
	}
}

// handlerCount returns the number of handlers registered for event.
func (c *Client) handlerCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers[event])
}

// Emit sends event without expecting an acknowledgement.
func (c *Client) Emit(event string, data any) error {
	return c.write(envelope{Event: event}, data)
}

// EmitWithAck sends event and calls ack exactly once with the server's answer,
// ErrDisconnected or ErrAckTimeout. ack is not called when Emit itself fails.
func (c *Client) EmitWithAck(event string, data any, ack AckFunc) error {
	id := ulid.Make().String()
	p := &pendingAck{event: event, fn: ack}

	c.mu.Lock()
	c.acks[id] = p
	if c.settings.AckTimeout > 0 {
		p.timer = time.AfterFunc(c.settings.AckTimeout, func() {
			c.resolveAck(id, ErrAckTimeout)
		})
	}
	c.mu.Unlock()

	if err := c.write(envelope{Event: event, Ack: id}, data); err != nil {
		c.mu.Lock()
		if p, ok := c.acks[id]; ok && p.timer != nil {
			p.timer.Stop()
		}
		delete(c.acks, id)
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Client) write(env envelope, data any) error {
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode %s: %w", env.Event, err)
		}
		env.Data = raw
	}
	msg, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Event, err)
	}

	c.mu.Lock()
	conn := c.current
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	select {
	case conn.send <- msg:
		c.log.Debug("emit", "event", env.Event, "ack", env.Ack)
		return nil
	case <-conn.ctx.Done():
		return ErrNotConnected
	case <-time.After(c.settings.WriteTimeout):
		return ErrSendTimeout
	}
}

func (c *Client) dial(ctx context.Context) (*connection, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	ws, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	connCtx, cancel := context.WithCancel(ctx)
	return &connection{
		ws:     ws,
		send:   make(chan []byte, c.settings.SendBufferSize),
		ctx:    connCtx,
		cancel: cancel,
	}, nil
}

func (c *Client) attach(conn *connection) {
	c.mu.Lock()
	c.current = conn
	c.mu.Unlock()
}

// detach drops conn if it is current and fails every pending ack.
func (c *Client) detach(conn *connection) {
	c.mu.Lock()
	if c.current != conn {
		c.mu.Unlock()
		return
	}
	c.current = nil
	pending := c.acks
	c.acks = make(map[string]*pendingAck)
	c.mu.Unlock()

	for _, p := range pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		p.fn(ErrDisconnected)
	}
}

func (c *Client) run(ctx context.Context, conn *connection) {
	for {
		c.serve(conn)
		c.detach(conn)
		if ctx.Err() != nil {
			return
		}
		c.log.Info("connection lost")
		c.notify(StatusDisconnected)

		conn = c.reconnect(ctx)
		if conn == nil {
			if ctx.Err() == nil {
				c.log.Warn("reconnect gave up", "attempts", c.settings.ReconnectAttempts)
				c.notify(StatusGaveUp)
			}
			return
		}
		if !c.attachReconnected(ctx, conn) {
			return
		}
	}
}

// attachReconnected installs conn unless Disconnect won the race, in which
// case conn is closed and no status is sent.
func (c *Client) attachReconnected(ctx context.Context, conn *connection) bool {
	c.life.Lock()
	defer c.life.Unlock()
	if ctx.Err() != nil {
		conn.cancel()
		_ = conn.ws.Close()
		return false
	}
	c.attach(conn)
	c.notify(StatusReconnected)
	return true
}

func (c *Client) reconnect(ctx context.Context) *connection {
	for attempt := 0; attempt < c.settings.ReconnectAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(calculateBackoff(attempt, c.settings.ReconnectBase)):
		}
		conn, err := c.dial(ctx)
		if err == nil {
			c.log.Info("reconnected", "attempt", attempt+1)
			return conn
		}
		c.log.Info("reconnect failed", "attempt", attempt+1, "error", err)
	}
	return nil
}

// serve pumps conn until it fails or is cancelled.
func (c *Client) serve(conn *connection) {
	defer func() {
		conn.cancel()
		_ = conn.ws.Close()
	}()

	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(c.settings.ReadTimeout))
	})

	go func() {
		defer conn.cancel()
		ping := time.NewTicker(c.settings.PingInterval)
		defer ping.Stop()
		for {
			select {
			case <-conn.ctx.Done():
				return
			case msg := <-conn.send:
				_ = conn.ws.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
				if err := conn.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
					c.log.Info("write failed", "error", err)
					return
				}
			case <-ping.C:
				deadline := time.Now().Add(c.settings.WriteTimeout)
				if err := conn.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()

	// Unblock ReadMessage when the writer or Disconnect cancels.
	go func() {
		<-conn.ctx.Done()
		_ = conn.ws.Close()
	}()

	for {
		_ = conn.ws.SetReadDeadline(time.Now().Add(c.settings.ReadTimeout))
		_, msg, err := conn.ws.ReadMessage()
		if err != nil {
			if conn.ctx.Err() == nil {
				c.log.Info("read failed", "error", err)
			}
			return
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg []byte) {
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		c.log.Warn("dropping malformed message", "error", err)
		return
	}

	if env.AckOf != "" {
		var ackErr error
		if env.Error != nil {
			ackErr = &AckError{Message: *env.Error}
		}
		c.resolveAck(env.AckOf, ackErr)
		return
	}

	c.mu.Lock()
	set := c.handlers[env.Event]
	fns := make([]Handler, 0, len(set))
	for entry := range set {
		fns = append(fns, entry.fn)
	}
	c.mu.Unlock()

	if len(fns) == 0 {
		c.log.Debug("no handler", "event", env.Event)
		return
	}
	for _, fn := range fns {
		fn(env.Data)
	}
}

func (c *Client) resolveAck(id string, err error) {
	c.mu.Lock()
	p, ok := c.acks[id]
	delete(c.acks, id)
	c.mu.Unlock()
	if !ok {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	var ackErr *AckError
	if errors.As(err, &ackErr) {
		ackErr.Event = p.event
	}
	p.fn(err)
}

func (c *Client) notify(s Status) {
	c.mu.Lock()
	fns := make([]func(Status), 0, len(c.statuses))
	for entry := range c.statuses {
		fns = append(fns, entry.fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func normalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("server url is empty")
	}
	switch {
	case strings.HasPrefix(trimmed, "http://"):
		trimmed = "ws://" + strings.TrimPrefix(trimmed, "http://")
	case strings.HasPrefix(trimmed, "https://"):
		trimmed = "wss://" + strings.TrimPrefix(trimmed, "https://")
	case !strings.Contains(trimmed, "://"):
		trimmed = "ws://" + trimmed
	}
	if !strings.HasPrefix(trimmed, "ws://") && !strings.HasPrefix(trimmed, "wss://") {
		return "", fmt.Errorf("unsupported server url %q", raw)
	}
	return trimmed, nil
}
