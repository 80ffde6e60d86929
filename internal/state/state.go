package state

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/five82/trailedit/internal/draft"
	"github.com/five82/trailedit/internal/mode"
	"github.com/five82/trailedit/internal/session"
	"github.com/five82/trailedit/internal/trail"
)

// MaxSelection is the number of nodes the auto-segment flow routes between.
const MaxSelection = 2

// Category groups user-visible failures.
type Category string

const (
	CategoryConnectivity Category = "connectivity"
	CategoryValidation   Category = "validation"
	CategorySave         Category = "save"
	CategoryRouting      Category = "routing"
	CategoryQuery        Category = "query"
)

// Failure is the single user-visible error slot.
type Failure struct {
	Category Category
	Err      error
}

func (f *Failure) Error() string {
	if f == nil || f.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", f.Category, f.Err)
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// Overlay is the collaborator UI currently shown above the map.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayContextMenu
	OverlayCrossroadForm
	OverlayDestinationForm
	OverlayConfirmQuit
)

// UI carries the minimal data the forms and overlays render from.
type UI struct {
	Overlay      Overlay
	OverlayAt    orb.Point
	Hover        *orb.Point
	Inspected    *trail.SnapAnchor
	Descriptions *trail.Descriptions
}

// AppState is the root of the application state. Values reachable from an
// *AppState returned by the store must be treated as read-only.
type AppState struct {
	Connection session.ConnectionState
	Mode       mode.Mode
	Draft      draft.Segment

	// Selection holds the auto-segment nodes in click order.
	Selection           []trail.SnapAnchor
	SelectionGeneration uint64

	Collections trail.Collections
	UI          UI
	LastError   *Failure
}

// Initial returns the session start state.
func Initial() *AppState {
	return &AppState{Mode: mode.Normal}
}

// Selected reports whether featureID is in the auto-segment selection.
func (s *AppState) Selected(featureID string) bool {
	for _, a := range s.Selection {
		if a.FeatureID == featureID {
			return true
		}
	}
	return false
}

// ErrorIn reports whether the current error belongs to category.
func (s *AppState) ErrorIn(category Category) bool {
	return s.LastError != nil && s.LastError.Category == category
}

// ErrOffline is surfaced when the connection drops.
var ErrOffline = errors.New("connection lost")
