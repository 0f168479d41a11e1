package monitor

import (
	"slices"

	"github.com/nerrad567/gray-logic-monitor/internal/telegram"
)

// Filters maps a tracked field to the list of accepted value IDs.
// A missing field or an empty list imposes no restriction.
type Filters map[telegram.Field][]string

// Clone returns a deep copy of the filters.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for field, values := range f {
		out[field] = slices.Clone(values)
	}
	return out
}

// IsSelected reports whether a value ID is selected for a field.
func (f Filters) IsSelected(field telegram.Field, id string) bool {
	return slices.Contains(f[field], id)
}

// IsEmpty reports whether no field has an active restriction.
func (f Filters) IsEmpty() bool {
	for _, values := range f {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// Toggle adds the value to the field's selection if absent, removes it if
// present. An emptied selection is deleted from the map so it no longer
// appears in the persisted location.
func (f Filters) Toggle(field telegram.Field, id string) {
	values := f[field]
	if i := slices.Index(values, id); i >= 0 {
		values = slices.Delete(values, i, i+1)
	} else {
		values = append(values, id)
	}
	if len(values) == 0 {
		delete(f, field)
		return
	}
	f[field] = values
}

// Set replaces the field's selection wholesale. An empty list removes the
// restriction.
func (f Filters) Set(field telegram.Field, values []string) {
	if len(values) == 0 {
		delete(f, field)
		return
	}
	f[field] = slices.Clone(values)
}

// Matches reports whether a record passes every active field filter.
//
// Pure and deterministic: for each field with a non-empty selection, the
// record's projected value must be among the selected IDs. A projection
// failure (unmapped field) fails closed for that field but never panics.
func Matches(r telegram.Record, filters Filters) bool {
	for field, values := range filters {
		if len(values) == 0 {
			continue
		}
		ref, err := field.Project(r)
		if err != nil {
			return false
		}
		if !slices.Contains(values, ref.ID) {
			return false
		}
	}
	return true
}
