// Package telegram defines the normalized representation of KNX group
// telegrams as observed by the monitor.
//
// The monitor does not decode bus frames itself. It consumes telegrams that
// the core has already decoded and published: the RawTelegram wire type
// mirrors the core's JSON feed, and Record is the immutable, normalized form
// used throughout the monitor (buffering, filtering, indexing).
//
// The four filterable fields (source, destination, direction, telegram type)
// are modelled as an explicit Field enum with a projection function, so a
// typo or an unmapped field surfaces as an error instead of a silent miss.
package telegram
