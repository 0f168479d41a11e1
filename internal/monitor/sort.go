package monitor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nerrad567/gray-logic-monitor/internal/telegram"
)

// SortColumn identifies the column a view is ordered by.
type SortColumn string

// Sortable columns.
const (
	ColumnTimestamp   SortColumn = "timestamp"
	ColumnSource      SortColumn = "source"
	ColumnDestination SortColumn = "destination"
	ColumnType        SortColumn = "telegramtype"
	ColumnDirection   SortColumn = "direction"
	ColumnValue       SortColumn = "value"
)

// SortDirection is the ordering direction of a view.
type SortDirection string

// Sort directions.
const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// Default sort state: newest telegram first.
const (
	DefaultSortColumn    = ColumnTimestamp
	DefaultSortDirection = SortDescending
)

// ParseSortColumn validates a sort column name from external input.
func ParseSortColumn(name string) (SortColumn, error) {
	switch SortColumn(name) {
	case ColumnTimestamp, ColumnSource, ColumnDestination, ColumnType, ColumnDirection, ColumnValue:
		return SortColumn(name), nil
	default:
		return "", fmt.Errorf("unknown sort column %q", name)
	}
}

// ParseSortDirection validates a sort direction from external input.
func ParseSortDirection(name string) (SortDirection, error) {
	switch SortDirection(name) {
	case SortAscending, SortDescending:
		return SortDirection(name), nil
	default:
		return "", fmt.Errorf("unknown sort direction %q", name)
	}
}

// Compare orders two records by column and direction, returning -1, 0 or 1.
//
// All sortable columns carry string keys; the timestamp column compares the
// ISO-8601 string, which is exact for fixed-precision timestamps. Descending
// direction negates the ascending comparison.
func Compare(a, b telegram.Record, column SortColumn, direction SortDirection) int {
	result := strings.Compare(columnKey(a, column), columnKey(b, column))
	if direction == SortDescending {
		return -result
	}
	return result
}

// SortRecords stable-sorts records in place by column and direction.
// Stability keeps the relative arrival order of equal keys.
func SortRecords(records []telegram.Record, column SortColumn, direction SortDirection) {
	sort.SliceStable(records, func(i, j int) bool {
		return Compare(records[i], records[j], column, direction) < 0
	})
}

// ComputeOffsets annotates each record with the time delta to the previous
// event in bus order, for "+Δt since previous" display.
//
// Offsets are only meaningful when the view is ordered by time: ascending,
// the previous event is one position earlier; descending, one position
// later. Any other column makes "previous" ambiguous, so every offset is
// left nil. The annotation mutates the given slice, which is expected to be
// a view copy, never the buffer's backing storage.
func ComputeOffsets(records []telegram.Record, column SortColumn, direction SortDirection) {
	for i := range records {
		records[i].OffsetMicros = nil
	}
	if column != ColumnTimestamp {
		return
	}

	for i := range records {
		var prev int
		if direction == SortDescending {
			prev = i + 1
		} else {
			prev = i - 1
		}
		if prev < 0 || prev >= len(records) {
			continue
		}
		if records[i].Timestamp.IsZero() || records[prev].Timestamp.IsZero() {
			continue
		}
		us := records[i].Timestamp.Sub(records[prev].Timestamp).Microseconds()
		records[i].OffsetMicros = &us
	}
}

func columnKey(r telegram.Record, column SortColumn) string {
	switch column {
	case ColumnSource:
		return r.SourceAddress
	case ColumnDestination:
		return r.DestinationAddress
	case ColumnType:
		return r.Type
	case ColumnDirection:
		return r.Direction
	case ColumnValue:
		return r.Value
	case ColumnTimestamp:
		return r.TimestampISO
	default:
		return r.TimestampISO
	}
}
