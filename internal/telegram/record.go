package telegram

import (
	"fmt"
	"time"
)

// Direction of a telegram relative to the bus interface.
const (
	DirectionIncoming = "Incoming"
	DirectionOutgoing = "Outgoing"
)

// Telegram type names as published by the core.
const (
	TypeGroupValueWrite    = "GroupValueWrite"
	TypeGroupValueRead     = "GroupValueRead"
	TypeGroupValueResponse = "GroupValueResponse"
)

// RawTelegram is the wire representation of one telegram as delivered by the
// core, either in the recent-telegram snapshot or on the live feed.
//
// Payload, DPT, Unit and Value are opaque strings produced by the core's
// decoder; the monitor never interprets them.
type RawTelegram struct {
	Timestamp       string `json:"timestamp"`
	Source          string `json:"source"`
	SourceName      string `json:"source_name"`
	Destination     string `json:"destination"`
	DestinationName string `json:"destination_name"`
	TelegramType    string `json:"telegramtype"`
	Direction       string `json:"direction"`
	Payload         string `json:"payload,omitempty"`
	DPT             string `json:"dpt,omitempty"`
	Unit            string `json:"unit,omitempty"`
	Value           string `json:"value,omitempty"`
}

// Record is the normalized, immutable representation of one bus telegram.
//
// ID is derived deterministically from (timestamp, source, destination) and
// is used for de-duplication on merge and for stable client-side keying.
// Uniqueness is not guaranteed by construction: two telegrams with the same
// timestamp, source and destination collide. Consumers must tolerate
// duplicate IDs; merge de-duplication is best-effort by ID presence.
//
// Offset is a display-only time delta to an adjacent record in the current
// sort order. It is recomputed on every view materialization and is nil on
// records held in the buffer.
type Record struct {
	ID                 string    `json:"id"`
	TimestampISO       string    `json:"timestamp_iso"`
	Timestamp          time.Time `json:"timestamp"`
	SourceAddress      string    `json:"source_address"`
	SourceText         string    `json:"source_text,omitempty"`
	DestinationAddress string    `json:"destination_address"`
	DestinationText    string    `json:"destination_text,omitempty"`
	Type               string    `json:"type"`
	Direction          string    `json:"direction"`
	Payload            string    `json:"payload,omitempty"`
	DPT                string    `json:"dpt,omitempty"`
	Unit               string    `json:"unit,omitempty"`
	Value              string    `json:"value,omitempty"`

	// OffsetMicros is the time delta in microseconds to the previous record
	// in the current sort order, nil when not applicable.
	OffsetMicros *int64 `json:"offset_us,omitempty"`
}

// NewRecord normalizes a raw telegram into a Record.
//
// The timestamp is parsed as RFC 3339 (with or without fractional seconds).
// An unparseable timestamp is not fatal: the record is still usable for
// buffering and display, with a zero Timestamp; the string TimestampISO
// remains the authoritative sort key either way.
func NewRecord(raw RawTelegram) Record {
	ts, _ := ParseTimestamp(raw.Timestamp) //nolint:errcheck // zero time tolerated, ISO string stays authoritative

	return Record{
		ID:                 DeriveID(raw.Timestamp, raw.Source, raw.Destination),
		TimestampISO:       raw.Timestamp,
		Timestamp:          ts,
		SourceAddress:      raw.Source,
		SourceText:         raw.SourceName,
		DestinationAddress: raw.Destination,
		DestinationText:    raw.DestinationName,
		Type:               raw.TelegramType,
		Direction:          raw.Direction,
		Payload:            raw.Payload,
		DPT:                raw.DPT,
		Unit:               raw.Unit,
		Value:              raw.Value,
	}
}

// DeriveID builds the deterministic record ID from the identifying triple.
//
// The same triple always yields the same ID, which makes snapshot merges
// idempotent across reconnects.
func DeriveID(timestampISO, source, destination string) string {
	return fmt.Sprintf("%s_%s_%s", timestampISO, source, destination)
}

// ParseTimestamp parses an ISO-8601 timestamp as delivered by the core.
//
// Returns:
//   - time.Time: Parsed timestamp
//   - error: ErrInvalidTimestamp if the string is not RFC 3339
func ParseTimestamp(iso string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, iso)
	}
	return ts, nil
}
