// Package monitor implements the live telegram monitoring controller.
//
// The controller ingests the core's telegram feed, keeps a capacity-bounded
// in-memory log (RingBuffer), tracks per-field value distributions for
// filter UIs (DistinctValueIndex), and derives a filtered, sorted, memoized
// view for presentation clients.
//
// Ownership model: all mutable state (buffer, index, filters, sort,
// selection) is owned by a single Controller instance and guarded by one
// mutex. Presentation layers only read derived snapshots and issue commands
// through the Controller's methods; the live feed re-enters through
// OnTelegram. After every mutation the controller invokes its onChange
// observer so clients can re-read the view.
//
// Reconnection is deliberately manual: transport failures are surfaced via
// ConnectionError and recovered only by an explicit user retry, never by an
// automatic backoff loop, to avoid surprising bus-traffic amplification.
package monitor
