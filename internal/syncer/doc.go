// Package syncer keeps the editor's collections in step with the backend.
//
// A Syncer sits between the state store and the event channel. List calls
// emit a request and rely on the matching push (crossroadsData,
// destinationsData, pathsData) to replace a collection. Save calls emit with
// an acknowledgement and turn the verdict into a store action carrying the
// draft generation captured at send time, so a late answer for an abandoned
// draft cannot clobber newer work. Description queries are correlated by a
// request id echoed in the response.
//
// Push listeners are registered once per session through a listener group and
// removed together by Close. Connection status changes only flip the online
// flag; nothing is replayed after a reconnect.
package syncer
