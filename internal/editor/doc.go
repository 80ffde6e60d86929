// Package editor wires pointer input to the state store.
//
// The Controller keeps one handler set per mode in a dispatch table and swaps
// the active set when the mode changes, so a pointer event is always handled
// by exactly one mode's handlers. Clicks are snapped to nodes through the
// snap resolver before they reach the draft builder or the auto-segment
// assistant.
//
//	pointer event ──▶ Controller.Handle ──▶ active Handlers ──▶ store.Dispatch
//	                                           │
//	                                           ├─▶ syncer (save, query)
//	                                           └─▶ autoseg.Assistant (select)
//
// View is the read-only projection forms and overlays render from; Bridge
// pushes collections and the draft to a map renderer as GeoJSON.
package editor
