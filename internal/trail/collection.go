package trail

import (
	"maps"
	"slices"
)

// Identifiable is implemented by every feature stored in a collection.
type Identifiable interface {
	FeatureID() string
}

// FeatureCollection is an immutable id -> feature mapping.
// The zero value is an empty collection.
type FeatureCollection[T Identifiable] struct {
	set *featureSet[T]
}

type featureSet[T Identifiable] struct {
	items map[string]T
}

// NewCollection builds a collection from items. Later duplicates win.
func NewCollection[T Identifiable](items ...T) FeatureCollection[T] {
	m := make(map[string]T, len(items))
	for _, item := range items {
		m[item.FeatureID()] = item
	}
	return FeatureCollection[T]{set: &featureSet[T]{items: m}}
}

func (c FeatureCollection[T]) items() map[string]T {
	if c.set == nil {
		return nil
	}
	return c.set.items
}

// Same reports whether c and o are the same revision, i.e. neither was
// derived from the other by Replace or Upsert.
func (c FeatureCollection[T]) Same(o FeatureCollection[T]) bool {
	return c.set == o.set
}

// Replace returns a collection holding exactly items.
func (c FeatureCollection[T]) Replace(items []T) FeatureCollection[T] {
	return NewCollection(items...)
}

// Upsert returns a copy with item inserted or replaced by id.
func (c FeatureCollection[T]) Upsert(item T) FeatureCollection[T] {
	m := maps.Clone(c.items())
	if m == nil {
		m = make(map[string]T, 1)
	}
	m[item.FeatureID()] = item
	return FeatureCollection[T]{set: &featureSet[T]{items: m}}
}

// Get looks up id.
func (c FeatureCollection[T]) Get(id string) (T, bool) {
	item, ok := c.items()[id]
	return item, ok
}

// Has reports whether id is present.
func (c FeatureCollection[T]) Has(id string) bool {
	_, ok := c.items()[id]
	return ok
}

// Len returns the number of features.
func (c FeatureCollection[T]) Len() int { return len(c.items()) }

// Items returns the features ordered by id.
func (c FeatureCollection[T]) Items() []T {
	items := c.items()
	ids := slices.Sorted(maps.Keys(items))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, items[id])
	}
	return out
}

// Collections groups the three server-owned collections.
type Collections struct {
	Crossroads   FeatureCollection[NodeFeature]
	Destinations FeatureCollection[NodeFeature]
	Paths        FeatureCollection[PathFeature]
}

// Node finds a crossroad or destination by id.
func (c Collections) Node(id string) (NodeFeature, bool) {
	if n, ok := c.Crossroads.Get(id); ok {
		return n, true
	}
	return c.Destinations.Get(id)
}

// Nodes returns crossroads followed by destinations, each ordered by id.
func (c Collections) Nodes() []NodeFeature {
	return append(c.Crossroads.Items(), c.Destinations.Items()...)
}
