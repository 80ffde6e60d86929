package state

import (
	"github.com/five82/trailedit/internal/draft"
	"github.com/five82/trailedit/internal/mode"
	"github.com/five82/trailedit/internal/trail"
)

// Reduce applies action to s and returns the next state. s is never
// modified. Actions that change nothing, including unknown ones, return s
// itself.
func Reduce(s *AppState, action Action) *AppState {
	if s == nil {
		s = Initial()
	}
	next := *s

	switch a := action.(type) {
	case ConnectionUpdated:
		next.Connection = a.Connection
		next.Connection.Roles = append([]string(nil), a.Connection.Roles...)
		if a.Connection.IsOnline {
			clearError(&next, CategoryConnectivity)
		}

	case OnlineChanged:
		if s.Connection.IsOnline == a.Online {
			return s
		}
		next.Connection.IsOnline = a.Online
		if a.Online {
			clearError(&next, CategoryConnectivity)
		} else {
			next.LastError = &Failure{Category: CategoryConnectivity, Err: ErrOffline}
		}

	case ModeRequested:
		changed, err := mode.Transition(s.Mode, a.Mode)
		if err != nil {
			next.LastError = &Failure{Category: CategoryValidation, Err: err}
			return &next
		}
		if !changed {
			return s
		}
		enterMode(&next, a.Mode)

	case CrossroadsReplaced:
		next.Collections.Crossroads = s.Collections.Crossroads.Replace(a.Items)
		clearError(&next, CategoryConnectivity)
	case DestinationsReplaced:
		next.Collections.Destinations = s.Collections.Destinations.Replace(a.Items)
		clearError(&next, CategoryConnectivity)
	case PathsReplaced:
		next.Collections.Paths = s.Collections.Paths.Replace(a.Items)
		clearError(&next, CategoryConnectivity)

	case NodeSaveAcknowledged:
		if a.Err != nil {
			next.LastError = &Failure{Category: CategorySave, Err: a.Err}
			return &next
		}
		switch a.Node.Kind {
		case trail.KindDestination:
			next.Collections.Destinations = s.Collections.Destinations.Upsert(a.Node)
		default:
			next.Collections.Crossroads = s.Collections.Crossroads.Upsert(a.Node)
		}
		if s.UI.Overlay == OverlayCrossroadForm || s.UI.Overlay == OverlayDestinationForm {
			next.UI.Overlay = OverlayNone
		}
		clearError(&next, CategorySave)

	case DraftClicked:
		if s.Mode != mode.Edit {
			return s
		}
		return applyDraft(s, &next, func(d draft.Segment) (draft.Segment, error) {
			return draft.Click(d, a.Point, a.Anchor)
		})

	case DraftPointPopped:
		if s.Mode == mode.AutoSegment {
			// Routed geometry is not hand-edited: undo drops the whole route.
			return Reduce(s, DraftCleared{})
		}
		return applyDraft(s, &next, draft.PopPoint)

	case DraftCleared:
		if s.Draft.Saving {
			next.LastError = &Failure{Category: CategoryValidation, Err: draft.ErrSaveInFlight}
			return &next
		}
		if s.Draft.IsZero() {
			return s
		}
		next.Draft = draft.Reset(s.Draft, s.Mode == mode.Edit)
		if s.Mode == mode.AutoSegment {
			resetSelection(&next)
		}

	case DraftStaged:
		if s.Mode != mode.AutoSegment || a.SelectionGeneration != s.SelectionGeneration {
			return s
		}
		staged, err := draft.Stage(s.Draft, a.Line, a.Start, a.End)
		if err != nil {
			next.LastError = &Failure{Category: CategoryRouting, Err: err}
			resetSelection(&next)
			return &next
		}
		next.Draft = staged
		clearError(&next, CategoryRouting)

	case SaveRequested:
		return applyDraft(s, &next, draft.BeginSave)

	case SaveAcknowledged:
		d, stale := draft.FinishSave(s.Draft, a.Generation, a.Err)
		if stale {
			// The draft was abandoned; the server still has the path.
			if a.Err != nil || a.Path.ID == "" {
				return s
			}
			next.Collections.Paths = s.Collections.Paths.Upsert(a.Path)
			return &next
		}
		next.Draft = d
		if a.Err != nil {
			next.LastError = &Failure{Category: CategorySave, Err: a.Err}
			return &next
		}
		next.Collections.Paths = s.Collections.Paths.Upsert(a.Path)
		next.Draft.Armed = s.Mode == mode.Edit
		if s.Mode == mode.AutoSegment {
			resetSelection(&next)
		}
		clearError(&next, CategorySave)

	case NodeSelected:
		if s.Mode != mode.AutoSegment || len(s.Selection) >= MaxSelection || s.Selected(a.Anchor.FeatureID) {
			return s
		}
		next.Selection = append(append([]trail.SnapAnchor(nil), s.Selection...), a.Anchor)

	case SelectionCleared:
		if len(s.Selection) == 0 && s.Draft.IsZero() {
			return s
		}
		resetSelection(&next)
		if !s.Draft.Saving {
			next.Draft = draft.Reset(s.Draft, false)
		}

	case RoutingFailed:
		if a.SelectionGeneration != s.SelectionGeneration {
			return s
		}
		resetSelection(&next)
		next.LastError = &Failure{Category: CategoryRouting, Err: a.Err}

	case HoverMoved:
		if a.Point == nil && s.UI.Hover == nil {
			return s
		}
		next.UI.Hover = a.Point

	case OverlayOpened:
		next.UI.Overlay = a.Overlay
		next.UI.OverlayAt = a.At

	case OverlayClosed:
		if s.UI.Overlay == OverlayNone {
			return s
		}
		next.UI.Overlay = OverlayNone

	case FeatureInspected:
		next.UI.Inspected = a.Anchor
		next.UI.Descriptions = nil

	case DescriptionsLoaded:
		if a.Err != nil {
			next.LastError = &Failure{Category: CategoryQuery, Err: a.Err}
			return &next
		}
		if s.UI.Inspected == nil || s.UI.Inspected.FeatureID != a.Descriptions.ID {
			return s
		}
		d := a.Descriptions
		next.UI.Descriptions = &d
		clearError(&next, CategoryQuery)

	case ErrorRaised:
		f := a.Failure
		next.LastError = &f

	case ErrorCleared:
		if s.LastError == nil {
			return s
		}
		next.LastError = nil

	default:
		return s
	}
	return &next
}

// enterMode applies the resets a transition into m cascades.
func enterMode(next *AppState, m mode.Mode) {
	next.Mode = m
	next.Draft = draft.Reset(next.Draft, m == mode.Edit)
	resetSelection(next)
	next.UI.Overlay = OverlayNone
	next.UI.Hover = nil
	if next.ErrorIn(CategoryValidation) || next.ErrorIn(CategoryRouting) {
		next.LastError = nil
	}
}

func resetSelection(next *AppState) {
	next.Selection = nil
	next.SelectionGeneration++
}

// applyDraft runs a draft operation, surfacing its error as a validation
// failure without touching the draft.
func applyDraft(s, next *AppState, op func(draft.Segment) (draft.Segment, error)) *AppState {
	d, err := op(s.Draft)
	if err != nil {
		next.LastError = &Failure{Category: CategoryValidation, Err: err}
		return next
	}
	next.Draft = d
	clearError(next, CategoryValidation)
	return next
}

func clearError(next *AppState, category Category) {
	if next.ErrorIn(category) {
		next.LastError = nil
	}
}
