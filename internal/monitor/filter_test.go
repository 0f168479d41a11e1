package monitor

import (
	"testing"

	"github.com/nerrad567/gray-logic-monitor/internal/telegram"
)

func TestMatches(t *testing.T) {
	rec := testRecord(1, "1.1.1", "1/2/3")
	rec.Direction = telegram.DirectionOutgoing
	rec.Type = telegram.TypeGroupValueWrite

	tests := []struct {
		name    string
		filters Filters
		want    bool
	}{
		{
			name:    "no filters matches everything",
			filters: Filters{},
			want:    true,
		},
		{
			name:    "nil filters matches everything",
			filters: nil,
			want:    true,
		},
		{
			name:    "empty list imposes no constraint",
			filters: Filters{telegram.FieldSource: {}},
			want:    true,
		},
		{
			name:    "matching source",
			filters: Filters{telegram.FieldSource: {"1.1.1"}},
			want:    true,
		},
		{
			name:    "non-matching source",
			filters: Filters{telegram.FieldSource: {"1.1.2"}},
			want:    false,
		},
		{
			name: "all fields must match",
			filters: Filters{
				telegram.FieldSource:    {"1.1.1"},
				telegram.FieldDirection: {telegram.DirectionIncoming},
			},
			want: false,
		},
		{
			name: "value among several accepted",
			filters: Filters{
				telegram.FieldDestination: {"2/0/0", "1/2/3"},
			},
			want: true,
		},
		{
			name: "type filter",
			filters: Filters{
				telegram.FieldType: {telegram.TypeGroupValueWrite, telegram.TypeGroupValueResponse},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(rec, tt.filters); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
			// Idempotence: a second evaluation yields the same result.
			if got := Matches(rec, tt.filters); got != tt.want {
				t.Errorf("second Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFiltersToggle(t *testing.T) {
	f := make(Filters)

	f.Toggle(telegram.FieldSource, "1.1.1")
	if !f.IsSelected(telegram.FieldSource, "1.1.1") {
		t.Fatal("value not selected after first toggle")
	}

	// Toggling again returns filters to the original absent state.
	f.Toggle(telegram.FieldSource, "1.1.1")
	if _, ok := f[telegram.FieldSource]; ok {
		t.Error("field entry should be deleted when its selection empties")
	}
	if !f.IsEmpty() {
		t.Error("filters should be empty after toggling the same value twice")
	}
}

func TestFiltersSet(t *testing.T) {
	f := make(Filters)
	f.Set(telegram.FieldDirection, []string{telegram.DirectionIncoming})
	if !f.IsSelected(telegram.FieldDirection, telegram.DirectionIncoming) {
		t.Fatal("Set did not select the value")
	}

	f.Set(telegram.FieldDirection, nil)
	if _, ok := f[telegram.FieldDirection]; ok {
		t.Error("Set with empty list should remove the restriction")
	}
}

func TestFiltersCloneIsDeep(t *testing.T) {
	f := Filters{telegram.FieldSource: {"1.1.1"}}
	clone := f.Clone()
	clone.Toggle(telegram.FieldSource, "1.1.2")

	if len(f[telegram.FieldSource]) != 1 {
		t.Error("mutating the clone changed the original")
	}
}
