package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/five82/trailedit/internal/autoseg"
	"github.com/five82/trailedit/internal/config"
	"github.com/five82/trailedit/internal/editor"
	"github.com/five82/trailedit/internal/logging"
	"github.com/five82/trailedit/internal/prefs"
	"github.com/five82/trailedit/internal/session"
	"github.com/five82/trailedit/internal/snap"
	"github.com/five82/trailedit/internal/socket"
	"github.com/five82/trailedit/internal/state"
	"github.com/five82/trailedit/internal/syncer"
	"github.com/five82/trailedit/internal/ui"
)

// ErrNoToken is raised when no auth token was supplied.
var ErrNoToken = errors.New("no auth token; set " + config.TokenEnv + " or pass -token")

// Options configure the trailedit application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/trailedit/prefs.toml
	Token      string // overrides the configured token
}

// Run boots the editor console until the context is cancelled or the user
// quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if token := strings.TrimSpace(opts.Token); token != "" {
		cfg.Token = token
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	log, err := logging.New(cfg.LogMode, cfg.LogPath)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	surface := ui.NewSurface(snap.WebMercator{Zoom: cfg.Zoom}, cfg.SnapTolerancePx)
	env, err := Build(ctx, cfg, userPrefs.Languages(), surface, log)
	if err != nil {
		return err
	}
	defer env.Close()
	env.Start(ctx)

	return ui.Run(ui.Options{
		Context:   ctx,
		Editor:    env.Controller,
		Store:     env.Store,
		Surface:   surface,
		Reconnect: env.Connect,
		LogPath:   cfg.LogPath,
		Zoom:      cfg.Zoom,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
	})
}

// Env is the wired editor core.
type Env struct {
	Store      *state.Store
	Client     *socket.Client
	Syncer     *syncer.Syncer
	Assistant  *autoseg.Assistant
	Controller *editor.Controller

	ctx context.Context
	log *logging.Logger

	stopSupervisor func()
	unsubscribe    func()
}

// Build wires the editor core for cfg. renderer may be nil when no map
// surface is attached.
func Build(ctx context.Context, cfg config.Config, languages [2]string, renderer editor.Renderer, log *logging.Logger) (*Env, error) {
	if log == nil {
		log = logging.Nop()
	}

	conn, err := session.FromToken(cfg.Token, false)
	if err != nil {
		log.Warn("token roles unreadable", "error", err)
	}

	store := state.NewStore(logging.ActionObserver(log))
	store.Dispatch(state.ConnectionUpdated{Connection: conn})

	settings := socket.DefaultSettings()
	settings.ReconnectAttempts = cfg.ReconnectAttempts
	client, err := socket.NewClient(cfg.ServerURL, log, settings)
	if err != nil {
		return nil, fmt.Errorf("init socket client: %w", err)
	}
	client.SetToken(conn.AuthToken)

	sync := syncer.New(client, store, log, syncer.WithListRetries(cfg.ListRetries))

	router, err := autoseg.NewHTTPRouter(cfg.RoutingURL, cfg.RoutingProfile)
	if err != nil {
		return nil, fmt.Errorf("init router: %w", err)
	}
	assist := autoseg.New(router, store, log)

	resolver := snap.Resolver{Projection: snap.WebMercator{Zoom: cfg.Zoom}}
	if renderer != nil {
		resolver.HitTester = renderer
	}
	ctrl := editor.NewController(ctx, store, sync, assist, resolver, log, editor.Options{
		TolerancePx: cfg.SnapTolerancePx,
		Languages:   languages,
	})

	env := &Env{
		Store:      store,
		Client:     client,
		Syncer:     sync,
		Assistant:  assist,
		Controller: ctrl,
		log:        log,
	}
	if renderer != nil {
		bridge := editor.NewBridge(renderer)
		bridge.Render(store.Snapshot())
		env.unsubscribe = store.Subscribe(bridge.Render)
	}
	return env, nil
}

// Start registers the push listeners, starts the connection supervisor and
// opens the connection when a token is available. A failed first connect is
// surfaced as a connectivity error; Connect may be retried.
func (e *Env) Start(ctx context.Context) {
	e.ctx = ctx
	e.Syncer.Start()
	e.stopSupervisor = StartSupervisor(ctx, e.Client, e.Syncer, e.log.With("component", "supervisor"), 0)
	if err := e.Connect(); err != nil {
		e.log.Warn("connect failed", "error", err)
	}
}

// Connect (re)opens the event channel once the session holds credentials.
func (e *Env) Connect() error {
	if !e.Store.Snapshot().Connection.Ready() {
		e.raise(ErrNoToken)
		return ErrNoToken
	}
	ctx := e.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := e.Client.Connect(ctx); err != nil {
		e.raise(err)
		return err
	}
	return nil
}

func (e *Env) raise(err error) {
	e.Store.Dispatch(state.ErrorRaised{Failure: state.Failure{Category: state.CategoryConnectivity, Err: err}})
}

// Close tears the core down: the connection first, then listeners and the
// supervisor. Routing requests still in flight are waited for.
func (e *Env) Close() {
	e.Client.Disconnect()
	e.Syncer.Close()
	if e.stopSupervisor != nil {
		e.stopSupervisor()
	}
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	e.Assistant.Clear()
	e.Assistant.Wait()
}
