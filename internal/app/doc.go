// Package app is the composition root of trailedit.
//
// # Overview
//
// Run loads configuration and preferences, builds the structured logger,
// wires the editor core and hands control to the console until the user
// quits or the context is cancelled.
//
// # Wiring
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()          ~/.config/trailedit/config.toml + $TRAILEDIT_TOKEN
//	       ├─────> prefs.Load()           theme and description languages
//	       ├─────> logging.New()          zap logger writing the session log
//	       ├─────> Build()
//	       │        ├─> session.FromToken()   roles from the JWT
//	       │        ├─> state.NewStore()      with the action logging observer
//	       │        ├─> socket.NewClient()    event channel
//	       │        ├─> syncer.New()          list, save and query protocol
//	       │        ├─> autoseg.New()         routing assistant over HTTPRouter
//	       │        ├─> editor.NewController  per-mode pointer handlers
//	       │        └─> store.Subscribe(bridge.Render)
//	       ├─────> Env.Start()            listeners, supervisor, first connect
//	       └─────> ui.Run()               console (blocks)
//
// # Connection supervision
//
// The socket client reports status changes; it never replays requests. The
// supervisor started by StartSupervisor turns each change into an
// online/offline action and, whenever the channel comes up (first connect or
// reconnect), re-requests all three collections so the store never shows data
// from before an outage. A refresh still running when the next status arrives
// is cancelled.
//
// # Error handling
//
// Fatal (returned from Run): unreadable or invalid configuration, a logger
// that cannot open its file, an unsupported server or routing URL.
//
// Everything else lands in the store's error slot: a missing token, a failed
// first connect, dropped connections and refresh failures. The console stays
// usable and R retries the connection.
package app
