package editor

import (
	"github.com/five82/trailedit/internal/draft"
	"github.com/five82/trailedit/internal/mode"
	"github.com/five82/trailedit/internal/state"
	"github.com/five82/trailedit/internal/trail"
)

// View is the read-only data forms and overlays render from.
type View struct {
	Mode      mode.Mode
	Phase     draft.Phase
	Draft     draft.Segment
	Selection []trail.SnapAnchor
	LastError *state.Failure

	Online       bool
	Roles        []string
	Overlay      state.Overlay
	Inspected    *trail.NodeFeature
	Descriptions *trail.Descriptions
	Counts       Counts
}

// Counts summarises the loaded collections.
type Counts struct {
	Crossroads   int
	Destinations int
	Paths        int
}

// NewView projects s.
func NewView(s *state.AppState) View {
	if s == nil {
		s = state.Initial()
	}
	v := View{
		Mode:         s.Mode,
		Phase:        s.Draft.Phase(),
		Draft:        s.Draft,
		Selection:    s.Selection,
		LastError:    s.LastError,
		Online:       s.Connection.IsOnline,
		Roles:        s.Connection.Roles,
		Overlay:      s.UI.Overlay,
		Descriptions: s.UI.Descriptions,
		Counts: Counts{
			Crossroads:   s.Collections.Crossroads.Len(),
			Destinations: s.Collections.Destinations.Len(),
			Paths:        s.Collections.Paths.Len(),
		},
	}
	if s.UI.Inspected != nil {
		if n, ok := s.Collections.Node(s.UI.Inspected.FeatureID); ok {
			v.Inspected = &n
		}
	}
	return v
}

// CanSubmit reports whether Submit would pass the local precondition.
func (v View) CanSubmit() bool {
	return v.Phase == draft.PhaseComplete && draft.Validate(v.Draft) == nil
}

// CanUndo reports whether CancelLastPoint has something to remove.
func (v View) CanUndo() bool {
	switch v.Phase {
	case draft.PhaseBuilding, draft.PhaseComplete:
		return true
	}
	return false
}
