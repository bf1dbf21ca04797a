package model

// Severity is the fixed set of levels an entry can carry. Matching is
// case-sensitive; there is no default.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Valid reports whether s is one of the allowed severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// Entry is one discrete logged event, the shape clients send and receive.
// DateTime is ISO 8601 with sub-second precision and an explicit offset. An
// entry is created exactly once on the ingest path and never mutated after.
type Entry struct {
	ID       string   `json:"id"`
	DateTime string   `json:"dateTime"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}
