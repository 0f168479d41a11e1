package monitor

import (
	"net/url"
	"strings"

	"github.com/nerrad567/gray-logic-monitor/internal/telegram"
)

// Location is the navigable location the controller persists filter state
// to. In a browser this would be the address bar; here it is an injected
// store so the current filter selection survives a client reload and can be
// shared as a link.
//
// Mutations use replace semantics: the controller overwrites the query in
// place and never accumulates navigation history.
type Location interface {
	// Query returns the current query parameters.
	Query() url.Values

	// ReplaceQuery overwrites the query parameters in place.
	ReplaceQuery(url.Values)
}

// MemoryLocation is an in-memory Location. The zero value is usable.
type MemoryLocation struct {
	values url.Values
}

// NewMemoryLocation creates a MemoryLocation from a raw query string
// (leading "?" optional). An unparseable query yields an empty location.
func NewMemoryLocation(rawQuery string) *MemoryLocation {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		values = url.Values{}
	}
	return &MemoryLocation{values: values}
}

// Query implements Location.
func (l *MemoryLocation) Query() url.Values {
	if l.values == nil {
		return url.Values{}
	}
	out := make(url.Values, len(l.values))
	for k, v := range l.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ReplaceQuery implements Location.
func (l *MemoryLocation) ReplaceQuery(values url.Values) {
	l.values = values
}

// String returns the location as a query string, "?source=a,b&..." or ""
// when no parameters are set. Keys are emitted in sorted order.
func (l *MemoryLocation) String() string {
	if l.values == nil || len(l.values) == 0 {
		return ""
	}
	return "?" + l.values.Encode()
}

// EncodeFilters serializes filters as query parameters: each field with a
// non-empty selection becomes one comma-joined parameter; empty selections
// are omitted entirely.
func EncodeFilters(filters Filters) url.Values {
	values := url.Values{}
	for _, f := range telegram.Fields() {
		if selected := filters[f]; len(selected) > 0 {
			values.Set(string(f), strings.Join(selected, ","))
		}
	}
	return values
}

// DecodeFilters rehydrates filters from query parameters, ignoring unknown
// parameters and empty values.
func DecodeFilters(values url.Values) Filters {
	filters := make(Filters)
	for _, f := range telegram.Fields() {
		raw := values.Get(string(f))
		if raw == "" {
			continue
		}
		var selected []string
		for _, part := range strings.Split(raw, ",") {
			if part != "" {
				selected = append(selected, part)
			}
		}
		if len(selected) > 0 {
			filters[f] = selected
		}
	}
	return filters
}
