package transport

import "errors"

// Sentinel errors for transport operations.
// Use errors.Is() to check error types.
var (
	// ErrSnapshotFetch is returned when the core's recent-telegram snapshot
	// cannot be retrieved or decoded.
	ErrSnapshotFetch = errors.New("transport: snapshot fetch failed")

	// ErrSubscribe is returned when the live-feed subscription cannot be
	// installed on the message bus.
	ErrSubscribe = errors.New("transport: subscribe failed")
)
