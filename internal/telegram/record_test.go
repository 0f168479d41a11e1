package telegram

import (
	"errors"
	"testing"
	"time"
)

func TestNewRecord(t *testing.T) {
	raw := RawTelegram{
		Timestamp:       "2026-03-01T10:00:01.500000Z",
		Source:          "1.1.1",
		SourceName:      "Wall Switch Hall",
		Destination:     "1/2/3",
		DestinationName: "Hall Lights",
		TelegramType:    TypeGroupValueWrite,
		Direction:       DirectionIncoming,
		Payload:         "0x01",
		DPT:             "1.001",
		Unit:            "",
		Value:           "On",
	}

	rec := NewRecord(raw)

	if rec.ID != "2026-03-01T10:00:01.500000Z_1.1.1_1/2/3" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.TimestampISO != raw.Timestamp {
		t.Errorf("TimestampISO = %q, want %q", rec.TimestampISO, raw.Timestamp)
	}
	want := time.Date(2026, 3, 1, 10, 0, 1, 500_000_000, time.UTC)
	if !rec.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", rec.Timestamp, want)
	}
	if rec.SourceAddress != "1.1.1" || rec.SourceText != "Wall Switch Hall" {
		t.Errorf("source = %q/%q", rec.SourceAddress, rec.SourceText)
	}
	if rec.DestinationAddress != "1/2/3" || rec.DestinationText != "Hall Lights" {
		t.Errorf("destination = %q/%q", rec.DestinationAddress, rec.DestinationText)
	}
	if rec.Type != TypeGroupValueWrite || rec.Direction != DirectionIncoming {
		t.Errorf("type/direction = %q/%q", rec.Type, rec.Direction)
	}
	if rec.Value != "On" || rec.DPT != "1.001" || rec.Payload != "0x01" {
		t.Errorf("decoded fields = %q/%q/%q", rec.Value, rec.DPT, rec.Payload)
	}
	if rec.OffsetMicros != nil {
		t.Error("fresh record should carry no offset")
	}
}

func TestNewRecordToleratesBadTimestamp(t *testing.T) {
	rec := NewRecord(RawTelegram{
		Timestamp:   "not-a-timestamp",
		Source:      "1.1.1",
		Destination: "1/2/3",
	})

	if !rec.Timestamp.IsZero() {
		t.Errorf("Timestamp = %v, want zero for unparseable input", rec.Timestamp)
	}
	// The ISO string stays authoritative for identity and sorting.
	if rec.TimestampISO != "not-a-timestamp" {
		t.Errorf("TimestampISO = %q", rec.TimestampISO)
	}
	if rec.ID != "not-a-timestamp_1.1.1_1/2/3" {
		t.Errorf("ID = %q", rec.ID)
	}
}

func TestDeriveIDIsDeterministic(t *testing.T) {
	a := DeriveID("2026-03-01T10:00:00Z", "1.1.1", "1/2/3")
	b := DeriveID("2026-03-01T10:00:00Z", "1.1.1", "1/2/3")
	if a != b {
		t.Errorf("same triple produced different IDs: %q vs %q", a, b)
	}

	c := DeriveID("2026-03-01T10:00:00Z", "1.1.1", "1/2/4")
	if a == c {
		t.Error("different destinations produced the same ID")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"fractional seconds", "2026-03-01T10:00:00.123456Z", false},
		{"whole seconds", "2026-03-01T10:00:00Z", false},
		{"numeric zone", "2026-03-01T11:00:00+01:00", false},
		{"empty", "", true},
		{"garbage", "yesterday", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimestamp) {
					t.Errorf("error = %v, want ErrInvalidTimestamp", err)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseTimestamp(%q) error: %v", tt.input, err)
			}
		})
	}
}
