package snapshot

import (
	"fmt"
	"time"
)

// ScrubbedKey is the reserved instance key holding comparator scrub records.
// It is additive side-channel data and never replaces original fields.
const ScrubbedKey = "scrubbed"

// Instance is one serialized record: an identity (Model, PK) plus a payload
// of field values. Field values are scalars, lists, or natural-key encoded
// references.
type Instance struct {
	Model    string              `json:"model"`
	PK       int64               `json:"pk"`
	Fields   map[string]any      `json:"fields"`
	Scrubbed map[string][]string `json:"scrubbed,omitempty"`
}

// millisecondUTC is the round-trip-stable timestamp layout: millisecond
// precision is always explicit, even when the sub-second component is zero,
// and the zone designator is always the literal Z.
const millisecondUTC = "2006-01-02T15:04:05.000Z"

// ParseInstant parses a document timestamp into a canonical instant.
// It tolerates any number of fractional-second digits and a missing zone
// designator (assumed UTC), since producers differ on both.
func ParseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// FormatInstant renders an instant in the document's millisecond-UTC form.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(millisecondUTC)
}

// NormalizeTimestamp re-renders a timestamp string in millisecond-UTC form.
func NormalizeTimestamp(s string) (string, error) {
	t, err := ParseInstant(s)
	if err != nil {
		return "", err
	}
	return FormatInstant(t), nil
}
