package telegram

import "fmt"

// Field identifies one of the tracked filterable telegram fields.
//
// The string values double as query-parameter names in the monitor's
// persisted filter state and as JSON keys in the API, so they must stay
// stable.
type Field string

// Tracked fields.
const (
	FieldSource      Field = "source"
	FieldDestination Field = "destination"
	FieldDirection   Field = "direction"
	FieldType        Field = "telegramtype"
)

// Fields returns all tracked fields in canonical order.
func Fields() []Field {
	return []Field{FieldSource, FieldDestination, FieldDirection, FieldType}
}

// ParseField validates a field name from external input (API, query params).
//
// Returns:
//   - Field: The matching field
//   - error: ErrUnknownField if the name is not tracked
func ParseField(name string) (Field, error) {
	switch Field(name) {
	case FieldSource, FieldDestination, FieldDirection, FieldType:
		return Field(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
}

// ValueRef is one observed value of a tracked field: the identifying value
// plus an optional human-readable name (e.g. a group address and the name
// assigned to it in the ETS project).
type ValueRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Project extracts the field's (id, name) pair from a record.
//
// Direction and telegram type have no separate human-readable name; their
// name equals the value itself.
//
// Returns:
//   - ValueRef: The projected value
//   - error: ErrUnknownField for an unmapped field (callers log and skip)
func (f Field) Project(r Record) (ValueRef, error) {
	switch f {
	case FieldSource:
		return ValueRef{ID: r.SourceAddress, Name: r.SourceText}, nil
	case FieldDestination:
		return ValueRef{ID: r.DestinationAddress, Name: r.DestinationText}, nil
	case FieldDirection:
		return ValueRef{ID: r.Direction, Name: r.Direction}, nil
	case FieldType:
		return ValueRef{ID: r.Type, Name: r.Type}, nil
	default:
		return ValueRef{}, fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
}
