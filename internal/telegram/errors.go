package telegram

import "errors"

// Domain errors for the telegram package.
var (
	// ErrUnknownField is returned when a field name does not map to one of
	// the tracked filterable fields.
	ErrUnknownField = errors.New("telegram: unknown field")

	// ErrInvalidTimestamp is returned when a telegram timestamp cannot be
	// parsed as ISO-8601.
	ErrInvalidTimestamp = errors.New("telegram: invalid timestamp")
)
