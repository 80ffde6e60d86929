package state

import (
	"github.com/paulmach/orb"

	"github.com/five82/trailedit/internal/mode"
	"github.com/five82/trailedit/internal/session"
	"github.com/five82/trailedit/internal/trail"
)

// Action is a named state transition.
type Action interface {
	ActionName() string
}

// Connection.

type ConnectionUpdated struct{ Connection session.ConnectionState }
type OnlineChanged struct{ Online bool }

// Mode.

type ModeRequested struct{ Mode mode.Mode }

// Collections.

type CrossroadsReplaced struct{ Items []trail.NodeFeature }
type DestinationsReplaced struct{ Items []trail.NodeFeature }
type PathsReplaced struct{ Items []trail.PathFeature }
type NodeSaveAcknowledged struct {
	Node trail.NodeFeature
	Err  error
}

// Draft segment.

type DraftClicked struct {
	Point  orb.Point
	Anchor *trail.SnapAnchor
}
type DraftPointPopped struct{}
type DraftCleared struct{}
type DraftStaged struct {
	Line                orb.LineString
	Start, End          trail.SnapAnchor
	SelectionGeneration uint64
}
type SaveRequested struct{}
type SaveAcknowledged struct {
	Generation uint64
	Path       trail.PathFeature
	Err        error
}

// Auto-segment selection.

type NodeSelected struct{ Anchor trail.SnapAnchor }
type SelectionCleared struct{}
type RoutingFailed struct {
	SelectionGeneration uint64
	Err                 error
}

// UI overlays and inspection.

type HoverMoved struct{ Point *orb.Point }
type OverlayOpened struct {
	Overlay Overlay
	At      orb.Point
}
type OverlayClosed struct{}
type FeatureInspected struct{ Anchor *trail.SnapAnchor }
type DescriptionsLoaded struct {
	Descriptions trail.Descriptions
	Err          error
}

// Errors.

type ErrorRaised struct{ Failure Failure }
type ErrorCleared struct{}

func (ConnectionUpdated) ActionName() string    { return "connection/updated" }
func (OnlineChanged) ActionName() string        { return "connection/online" }
func (ModeRequested) ActionName() string        { return "mode/requested" }
func (CrossroadsReplaced) ActionName() string   { return "collections/crossroads" }
func (DestinationsReplaced) ActionName() string { return "collections/destinations" }
func (PathsReplaced) ActionName() string        { return "collections/paths" }
func (NodeSaveAcknowledged) ActionName() string { return "collections/node-ack" }
func (DraftClicked) ActionName() string         { return "draft/click" }
func (DraftPointPopped) ActionName() string     { return "draft/pop" }
func (DraftCleared) ActionName() string         { return "draft/clear" }
func (DraftStaged) ActionName() string          { return "draft/stage" }
func (SaveRequested) ActionName() string        { return "draft/save" }
func (SaveAcknowledged) ActionName() string     { return "draft/ack" }
func (NodeSelected) ActionName() string         { return "selection/add" }
func (SelectionCleared) ActionName() string     { return "selection/clear" }
func (RoutingFailed) ActionName() string        { return "selection/routing-failed" }
func (HoverMoved) ActionName() string           { return "ui/hover" }
func (OverlayOpened) ActionName() string        { return "ui/overlay-open" }
func (OverlayClosed) ActionName() string        { return "ui/overlay-close" }
func (FeatureInspected) ActionName() string     { return "ui/inspect" }
func (DescriptionsLoaded) ActionName() string   { return "ui/descriptions" }
func (ErrorRaised) ActionName() string          { return "error/raised" }
func (ErrorCleared) ActionName() string         { return "error/cleared" }
