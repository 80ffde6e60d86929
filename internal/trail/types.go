package trail

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/paulmach/orb"
)

// Kind identifies the node family a feature belongs to.
type Kind string

const (
	KindCrossroad   Kind = "crossroad"
	KindDestination Kind = "destination"
)

// Description limits enforced before a node is sent to the server.
const (
	MaxShortDescription = 160
	MaxLongDescription  = 4000
)

var (
	ErrNameRequired       = errors.New("name is required")
	ErrDescriptionTooLong = errors.New("description too long")
)

// Description is a short/long text pair in one language.
type Description struct {
	Short string `json:"short"`
	Long  string `json:"long"`
}

// Descriptions is the bilingual answer to a point-of-interest query.
type Descriptions struct {
	ID        string      `json:"id"`
	RequestID string      `json:"requestId,omitempty"`
	Primary   Description `json:"primary"`
	Secondary Description `json:"secondary"`
}

// NodeFeature is a crossroad or destination.
type NodeFeature struct {
	ID           string                 `json:"id"`
	Kind         Kind                   `json:"kind"`
	Coordinates  orb.Point              `json:"coordinates"`
	Name         string                 `json:"name"`
	Type         string                 `json:"type,omitempty"`
	Descriptions map[string]Description `json:"descriptions,omitempty"`
}

// FeatureID implements Identifiable.
func (n NodeFeature) FeatureID() string { return n.ID }

// Validate checks the local constraints a node must meet before saving.
func (n NodeFeature) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return ErrNameRequired
	}
	for lang, d := range n.Descriptions {
		if utf8.RuneCountInString(d.Short) > MaxShortDescription {
			return fmt.Errorf("%s short %w (max %d)", lang, ErrDescriptionTooLong, MaxShortDescription)
		}
		if utf8.RuneCountInString(d.Long) > MaxLongDescription {
			return fmt.Errorf("%s long %w (max %d)", lang, ErrDescriptionTooLong, MaxLongDescription)
		}
	}
	return nil
}

// PathFeature is a saved segment between two nodes.
type PathFeature struct {
	ID           string         `json:"id"`
	Coordinates  orb.LineString `json:"coordinates"`
	Name         string         `json:"name,omitempty"`
	Surface      string         `json:"surface,omitempty"`
	Condition    string         `json:"condition,omitempty"`
	Length       float64        `json:"length"`
	StartBearing float64        `json:"startBearing"`
	EndBearing   float64        `json:"endBearing"`
	StartNode    string         `json:"startNode"`
	EndNode      string         `json:"endNode"`
}

// FeatureID implements Identifiable.
func (p PathFeature) FeatureID() string { return p.ID }

// SnapAnchor references the node a draft endpoint is attached to.
type SnapAnchor struct {
	Coordinates orb.Point `json:"coordinates"`
	FeatureID   string    `json:"featureId"`
	FeatureType Kind      `json:"featureType"`
}

// AnchorOf builds the anchor referencing n.
func AnchorOf(n NodeFeature) SnapAnchor {
	return SnapAnchor{Coordinates: n.Coordinates, FeatureID: n.ID, FeatureType: n.Kind}
}

// SameFeature reports whether both anchors are set and reference the same node.
func SameFeature(a, b *SnapAnchor) bool {
	return a != nil && b != nil && a.FeatureID == b.FeatureID
}
