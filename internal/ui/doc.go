// Package ui is the terminal console for trailedit, built on Bubble Tea.
//
// The console has no raster map. A map cursor stands in for the mouse: it
// moves in screen pixel steps at the configured zoom, and enter, m and cursor
// moves become the click, context menu and mouse move pointer events the
// editor controller dispatches through its per-mode handler table.
//
// # Data flow
//
//	state.Store ──Subscribe──> editor.Bridge ──SetLayerData──> Surface
//	     │                                                      │
//	     └──Snapshot (tick)──> Model.view            HitTest <──┘
//	                               │
//	                   keys ──> Editor (controller)
//
// The Model never mutates state directly. It reads a store snapshot on every
// tick and after each command, and derives everything it renders from
// editor.View. Forms follow the overlay in the state: opening the crossroad
// or destination form in the store opens the modal here, and a successful
// save closes it the same way.
//
// # Files
//
//   - app.go: Model, key handling, messages and commands
//   - surface.go: layer store and hit testing for the map cursor
//   - view.go: header, command bar, mode panels and overlays
//   - form.go: node creation modal
//   - logs.go: session log pane fed by the logtail package
//   - theme.go, style_helpers.go: palettes and lipgloss helpers
//   - keys.go, help.go: key bindings and the help overlay
package ui
