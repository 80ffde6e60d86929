// Package state is the single source of truth for an editing session.
//
// # Overview
//
// AppState holds everything the editor, the forms and the renderer read: the
// connection, the active mode, the draft segment, the auto-segment selection,
// the three server collections, overlay data and the single lastError slot.
// Nothing outside this package mutates it. Components request changes by
// dispatching named actions.
//
// # Reducer
//
// Reduce is a pure, total function:
//
//	next := Reduce(prev, action)
//
//   - prev is never modified; changed fields are copied into a new AppState
//   - collections are immutable values, so untouched collections are shared
//   - actions that change nothing, and unknown actions, return prev itself
//
// Mode requests cascade their resets here rather than in the controller:
// leaving EDIT discards the draft, leaving AUTO_SEGMENT empties the selection,
// and every reset advances the draft and selection generations so late
// network answers for abandoned work are recognised and dropped.
//
// # Store
//
// Store serializes Dispatch calls so that no two actions are ever applied
// concurrently, even though network callbacks arrive on the socket goroutine.
//
//	Producers:                        Consumers:
//	┌──────────────────┐              ┌──────────────────┐
//	│ editor (pointer) │              │ ui (tick)        │
//	│ syncer (network) │─ Dispatch ──→│ Snapshot()       │
//	│ autoseg (router) │              │ Subscribe(fn)    │
//	└──────────────────┘              └──────────────────┘
//
// Observers receive (prev, action, next) for every dispatch and are the hook
// for action logging. Subscribers are called only when the state changed and
// are removed through the function Subscribe returns.
//
// # Errors
//
// Failures carry a Category. A later successful action of the same category
// clears the slot; failures of other categories are left alone.
package state
