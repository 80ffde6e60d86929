package ui

import "time"

// Terminal width below which the header drops secondary fields.
const LayoutCompactWidth = 100

// Log pane limits.
const (
	LogTailLines = 400
	LogMinLevel  = "info"
)

const (
	// DefaultUIInterval is the store snapshot cadence.
	DefaultUIInterval = 250 * time.Millisecond

	// LogRefreshInterval is how often the log pane rereads the session log.
	LogRefreshInterval = 2 * time.Second
)

// Cursor movement in screen pixels at the configured zoom.
const (
	cursorStepPx     = 4
	cursorFastStepPx = 32
)
