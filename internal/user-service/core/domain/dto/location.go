package dto

// LiveLocation is the Driver Service latest-location payload as received,
// plus formattedTimeIST. Unknown upstream fields are kept.
type LiveLocation map[string]any

const (
	FieldTimestamp        = "timestamp"
	FieldFormattedTimeIST = "formattedTimeIST"
)
