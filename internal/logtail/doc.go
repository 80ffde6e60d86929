// Package logtail reads the end of the session log for the console log pane.
//
// Read uses a ring buffer of maxLines entries so only one pass over the file
// is needed and memory stays proportional to the tail, not the file:
//
//	lines, err := logtail.Read(cfg.LogPath, 200)
//
// Parse turns a line written by the logging package into an Entry. Both
// encodings are understood: JSON lines (production) and tab separated
// console lines (development). Lines that match neither are kept verbatim
// in Message so nothing disappears from the pane.
//
// Read returns nil, nil for a missing file; the log may simply not have been
// created yet.
package logtail
