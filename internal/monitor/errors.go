package monitor

import "errors"

// Domain errors for the monitor package.
var (
	// ErrSnapshotFetch is returned when the recent-telegram snapshot cannot
	// be fetched from the core.
	ErrSnapshotFetch = errors.New("monitor: snapshot fetch failed")

	// ErrSubscribeFailed is returned when the live feed subscription fails.
	ErrSubscribeFailed = errors.New("monitor: subscribe failed")

	// ErrNotSubscribed is returned when an operation requires an active
	// subscription but none exists.
	ErrNotSubscribed = errors.New("monitor: not subscribed")
)
