// Package transport connects the monitor to Gray Logic Core.
//
// It implements monitor.Transport with two delivery paths:
//   - Snapshot: the core's REST endpoint serving recent telegram history,
//     fetched on setup and on every explicit reload or reconnect
//   - Live feed: the core's telegram topic on the MQTT bus, one JSON
//     payload per observed bus telegram
//
// The snapshot is authoritative; the live feed fills in between snapshots.
// Overlap between the two is harmless because the monitor merges by record
// ID. Malformed live payloads are logged and dropped without disturbing the
// subscription.
package transport
