package ingest

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/logvault-io/logvault/internal/model"
)

// ValidationError reports a client-input defect on a single field. It is never
// retried and maps to a 4xx rejection.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// timeLayout always renders a sub-second fraction and an explicit offset.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// iso8601 is deliberately loose: date, time, optional fraction, optional offset.
var iso8601 = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:?\d{2})?$`)

// Normalizer turns a decoded request body into a canonical Entry. The clock and
// id generator are injected so normalization is deterministic under test.
type Normalizer struct {
	Now   func() time.Time
	NewID func() string
}

// NewNormalizer returns a Normalizer backed by the system clock and uuid v4.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// Normalize validates raw and returns a canonical entry.
//
// A client-supplied id is passed through unchanged with no uniqueness or format
// check; the write path treats a duplicate id as an overwrite. A client-supplied
// dateTime must look like ISO 8601 but is otherwise taken as-is. Missing id and
// dateTime are generated here, so both are assigned at most once per entry.
func (n *Normalizer) Normalize(raw map[string]any) (model.Entry, error) {
	sev, ok := raw["severity"].(string)
	if !ok || sev == "" {
		return model.Entry{}, &ValidationError{Field: "severity", Reason: "missing required field"}
	}
	severity := model.Severity(sev)
	if !severity.Valid() {
		return model.Entry{}, &ValidationError{Field: "severity", Reason: "must be one of: error, info, warning"}
	}

	msg, ok := raw["message"].(string)
	if !ok || msg == "" {
		return model.Entry{}, &ValidationError{Field: "message", Reason: "missing required field"}
	}

	id, _ := raw["id"].(string)
	if id == "" {
		id = n.NewID()
	}

	var dateTime string
	if v, present := raw["dateTime"]; present && v != nil {
		s, ok := v.(string)
		if !ok || !iso8601.MatchString(s) {
			return model.Entry{}, &ValidationError{Field: "dateTime", Reason: "expected ISO 8601"}
		}
		dateTime = s
	}
	if dateTime == "" {
		dateTime = n.Now().UTC().Format(timeLayout)
	}

	return model.Entry{
		ID:       id,
		DateTime: dateTime,
		Severity: severity,
		Message:  msg,
	}, nil
}
