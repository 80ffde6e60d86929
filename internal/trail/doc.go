// Package trail defines the trail network data model shared by the editor,
// the state store and the sync layer.
//
// # Features
//
// Two feature families exist:
//
//   - NodeFeature: a crossroad or destination point. Paths must start and end
//     at a node.
//   - PathFeature: a line between two nodes with computed length and end
//     bearings.
//
// Both are owned by the server. The editor never mutates a feature in place;
// it only replaces or upserts whole entries once the server has acknowledged
// them.
//
// # Collections
//
// FeatureCollection is an immutable id-keyed set. Replace and Upsert return a
// new collection, leaving the receiver untouched, so the state reducer can
// stay pure:
//
//	paths = paths.Upsert(saved) // idempotent by id
//
// # Wire Format
//
// Coordinates travel as [lon, lat] arrays (orb.Point), lines as arrays of
// points. Field names match the event channel payloads.
package trail
