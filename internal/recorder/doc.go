// Package recorder persists the addresses observed on the monitored bus.
//
// Every telegram flowing through the monitor carries a source individual
// address and a destination group address. The recorder upserts both into
// SQLite, building a passive catalogue of the installation over time: which
// devices talk, which group addresses are in use, and which of those answer
// read requests. The catalogue survives restarts, unlike the in-memory
// telegram log, and is served read-only through the HTTP API.
package recorder
