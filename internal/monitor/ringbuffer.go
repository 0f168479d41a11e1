package monitor

import (
	"sort"

	"github.com/nerrad567/gray-logic-monitor/internal/telegram"
)

// RingBuffer is a capacity-bounded, time-ordered store of telegram records.
//
// Records are kept sorted ascending by their ISO-8601 timestamp string
// (string comparison is exact for fixed-precision ISO-8601). When a batch is
// appended that is already in order and not older than the current tail, the
// buffer appends in O(k) without re-sorting; otherwise it falls back to a
// stable full sort, preserving the relative order of equal timestamps.
//
// Overflow is never an error: after any mutation the oldest excess records
// are evicted from the front and returned to the caller, so dependent
// structures (the distinct value index) can stay consistent.
//
// RingBuffer is not safe for concurrent use; the Controller serializes all
// access.
type RingBuffer struct {
	records []telegram.Record
	maxSize int
}

// NewRingBuffer creates a buffer with the given capacity.
// A capacity below 1 is clamped to 1.
func NewRingBuffer(maxSize int) *RingBuffer {
	if maxSize < 1 {
		maxSize = 1
	}
	return &RingBuffer{maxSize: maxSize}
}

// Len returns the current number of buffered records.
func (b *RingBuffer) Len() int { return len(b.records) }

// MaxSize returns the current capacity.
func (b *RingBuffer) MaxSize() int { return b.maxSize }

// IsEmpty reports whether the buffer holds no records.
func (b *RingBuffer) IsEmpty() bool { return len(b.records) == 0 }

// Add appends one or more records and returns any records evicted to keep
// the buffer within capacity. Empty input is a no-op returning nil.
func (b *RingBuffer) Add(records ...telegram.Record) []telegram.Record {
	if len(records) == 0 {
		return nil
	}

	if len(b.records) == 0 {
		b.records = append(b.records, records...)
		if len(records) > 1 && !isSortedAscending(b.records) {
			stableSortByTimestamp(b.records)
		}
		return b.evictExcess()
	}

	// Fast path: batch is internally non-decreasing and not older than the
	// current tail, so appending preserves order.
	tail := b.records[len(b.records)-1].TimestampISO
	if records[0].TimestampISO >= tail && isSortedAscending(records) {
		b.records = append(b.records, records...)
		return b.evictExcess()
	}

	b.records = append(b.records, records...)
	stableSortByTimestamp(b.records)
	return b.evictExcess()
}

// Merge reconciles the buffer with an authoritative snapshot, typically
// after a reconnect. Records whose ID is already present are left untouched;
// the remainder is added in timestamp order.
//
// Returns:
//   - added: Snapshot records that were new to the buffer (sorted ascending)
//   - evicted: Records evicted by the insertion, for index cleanup
func (b *RingBuffer) Merge(incoming []telegram.Record) (added, evicted []telegram.Record) {
	if len(incoming) == 0 {
		return nil, nil
	}

	present := make(map[string]struct{}, len(b.records))
	for i := range b.records {
		present[b.records[i].ID] = struct{}{}
	}

	for i := range incoming {
		if _, ok := present[incoming[i].ID]; ok {
			continue
		}
		// Guard against duplicate IDs within the snapshot itself.
		present[incoming[i].ID] = struct{}{}
		added = append(added, incoming[i])
	}
	if len(added) == 0 {
		return nil, nil
	}

	stableSortByTimestamp(added)
	evicted = b.Add(added...)
	return added, evicted
}

// SetMaxSize changes the buffer capacity. Shrinking below the current length
// immediately evicts the oldest excess records, which are returned.
func (b *RingBuffer) SetMaxSize(maxSize int) []telegram.Record {
	if maxSize < 1 {
		maxSize = 1
	}
	b.maxSize = maxSize
	return b.evictExcess()
}

// Snapshot returns a copy of the buffered records in ascending time order.
func (b *RingBuffer) Snapshot() []telegram.Record {
	out := make([]telegram.Record, len(b.records))
	copy(out, b.records)
	return out
}

// At returns the record at index i and whether the index was in range.
func (b *RingBuffer) At(i int) (telegram.Record, bool) {
	if i < 0 || i >= len(b.records) {
		return telegram.Record{}, false
	}
	return b.records[i], true
}

// FindIndexByID returns the index of the first record with the given ID,
// or -1 if absent.
func (b *RingBuffer) FindIndexByID(id string) int {
	for i := range b.records {
		if b.records[i].ID == id {
			return i
		}
	}
	return -1
}

// GetByID returns the first record with the given ID and whether it exists.
func (b *RingBuffer) GetByID(id string) (telegram.Record, bool) {
	if i := b.FindIndexByID(id); i >= 0 {
		return b.records[i], true
	}
	return telegram.Record{}, false
}

// Clear empties the buffer and returns everything removed, so callers can
// clean up dependent indexes.
func (b *RingBuffer) Clear() []telegram.Record {
	removed := b.records
	b.records = nil
	return removed
}

// evictExcess drops the oldest records beyond capacity and returns them.
func (b *RingBuffer) evictExcess() []telegram.Record {
	excess := len(b.records) - b.maxSize
	if excess <= 0 {
		return nil
	}
	evicted := make([]telegram.Record, excess)
	copy(evicted, b.records[:excess])
	b.records = append(b.records[:0], b.records[excess:]...)
	return evicted
}

// isSortedAscending reports whether records are non-decreasing by ISO
// timestamp.
func isSortedAscending(records []telegram.Record) bool {
	for i := 1; i < len(records); i++ {
		if records[i].TimestampISO < records[i-1].TimestampISO {
			return false
		}
	}
	return true
}

// stableSortByTimestamp sorts ascending by ISO timestamp, keeping the
// original relative order of equal timestamps.
func stableSortByTimestamp(records []telegram.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TimestampISO < records[j].TimestampISO
	})
}
