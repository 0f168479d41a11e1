package monitor

import (
	"github.com/nerrad567/gray-logic-monitor/internal/telegram"
)

// Logger is the minimal logging interface the monitor components need.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// DistinctValue is one observed value of a tracked field together with its
// occurrence counts.
//
// TotalCount is the number of buffered records currently holding this value.
// FilteredCount is recomputed on every view materialization against the
// currently filtered record set, so filter-option badges can show
// "N of M" relative to the other active filters.
type DistinctValue struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	TotalCount    int    `json:"total_count"`
	FilteredCount int    `json:"filtered_count"`
}

// DistinctValues maps each tracked field to its observed values, keyed by
// value ID.
type DistinctValues map[telegram.Field]map[string]DistinctValue

// DistinctValueIndex maintains, per tracked field, the set of observed
// values with live occurrence counts.
//
// Invariant: for every field and value, TotalCount equals the number of
// buffer records whose projection for that field equals that value. The
// Controller upholds this by feeding every buffer insertion and eviction
// through AddRecord/RemoveRecords.
//
// Not safe for concurrent use; the Controller serializes all access.
type DistinctValueIndex struct {
	values map[telegram.Field]map[string]*DistinctValue
	logger Logger
}

// NewDistinctValueIndex creates an empty index for the tracked fields.
func NewDistinctValueIndex(logger Logger) *DistinctValueIndex {
	values := make(map[telegram.Field]map[string]*DistinctValue, len(telegram.Fields()))
	for _, f := range telegram.Fields() {
		values[f] = make(map[string]*DistinctValue)
	}
	return &DistinctValueIndex{values: values, logger: logger}
}

// AddRecord counts the record's value for every tracked field, creating
// entries on first sight. A stored empty name is backfilled when a later
// occurrence carries one (names may arrive empty on first sighting and
// populate once the project file is loaded).
func (x *DistinctValueIndex) AddRecord(r telegram.Record) {
	for _, f := range telegram.Fields() {
		ref, err := f.Project(r)
		if err != nil {
			// Bug signal, not an operational condition: log and keep the
			// index consistent for the remaining fields.
			x.logError(f, err)
			continue
		}

		entry, ok := x.values[f][ref.ID]
		if !ok {
			entry = &DistinctValue{ID: ref.ID, Name: ref.Name}
			x.values[f][ref.ID] = entry
		}
		if entry.Name == "" && ref.Name != "" {
			entry.Name = ref.Name
		}
		entry.TotalCount++
	}
}

// RemoveRecords decrements counts for evicted or cleared records and prunes
// entries whose TotalCount reaches zero, so stale filter options disappear.
func (x *DistinctValueIndex) RemoveRecords(records []telegram.Record) {
	for i := range records {
		for _, f := range telegram.Fields() {
			ref, err := f.Project(records[i])
			if err != nil {
				x.logError(f, err)
				continue
			}

			entry, ok := x.values[f][ref.ID]
			if !ok {
				continue
			}
			entry.TotalCount--
			if entry.TotalCount <= 0 {
				delete(x.values[f], ref.ID)
			}
		}
	}
}

// Prune removes entries that have no backing records (TotalCount == 0) and
// are not currently selected in the given filters. Selected zero-count
// entries survive so the user keeps their filter chips.
func (x *DistinctValueIndex) Prune(filters Filters) {
	for f, byID := range x.values {
		for id, entry := range byID {
			if entry.TotalCount == 0 && !filters.IsSelected(f, id) {
				delete(byID, id)
			}
		}
	}
}

// Clear rebuilds the index after the buffer has been emptied, preserving
// only entries that are currently selected in the filters. Preserved chips
// keep their name but drop to zero counts, since their backing records are
// gone; a chip for a selected value that was never observed is created with
// an empty name.
func (x *DistinctValueIndex) Clear(filters Filters) {
	for _, f := range telegram.Fields() {
		kept := make(map[string]*DistinctValue)
		for _, id := range filters[f] {
			name := ""
			if old, ok := x.values[f][id]; ok {
				name = old.Name
			}
			kept[id] = &DistinctValue{ID: id, Name: name}
		}
		x.values[f] = kept
	}
}

// Snapshot returns a deep copy of the index, with FilteredCount zeroed,
// ready for the view pass to tally filtered occurrences.
func (x *DistinctValueIndex) Snapshot() DistinctValues {
	out := make(DistinctValues, len(x.values))
	for f, byID := range x.values {
		vals := make(map[string]DistinctValue, len(byID))
		for id, entry := range byID {
			vals[id] = DistinctValue{ID: entry.ID, Name: entry.Name, TotalCount: entry.TotalCount}
		}
		out[f] = vals
	}
	return out
}

// TotalCount returns the live count for a field value, zero if absent.
func (x *DistinctValueIndex) TotalCount(field telegram.Field, id string) int {
	if entry, ok := x.values[field][id]; ok {
		return entry.TotalCount
	}
	return 0
}

func (x *DistinctValueIndex) logError(f telegram.Field, err error) {
	if x.logger != nil {
		x.logger.Error("distinct value projection failed", "field", string(f), "error", err)
	}
}
