// Package api implements the HTTP REST API and WebSocket server for Gray Logic Monitor.
//
// This package provides:
//   - REST endpoints for the telegram view, monitor controls and filter state
//   - REST endpoints for the observed-address catalogue
//   - WebSocket hub broadcasting change notifications
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between user interfaces (the monitor web UI, admin
// tooling) and the monitor controller. Every mutating endpoint funnels into
// the controller, which serializes state changes and notifies the WebSocket
// hub; clients then re-fetch the derived view. The view itself is memoized
// in the controller, so bursts of identical reads are cheap.
//
// # Graceful Degradation
//
// The server operates without the address recorder (the catalogue endpoints
// return 404) and while the core is unreachable (the telegram log stays
// readable; reload and retry surface upstream errors as 502).
package api
