package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// fallbackLayouts are accepted in addition to RFC 3339. The backend emits
// timezone-less timestamps for some columns; those are read as UTC. Graph API
// payloads passed through verbatim use a colon-less offset.
var fallbackLayouts = []string{
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
}

// Time is a nullable timestamp as it appears in backend payloads.
// The zero value means the field was null or absent.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// UnmarshalJSON accepts null, RFC 3339 and naive ISO-8601 timestamps.
func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range fallbackLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}

	return fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalJSON writes null for the zero value.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

// Format renders the timestamp for display, or "-" when absent.
func (t Time) Format(layout string) string {
	if t.IsZero() {
		return "-"
	}
	return t.Time.Format(layout)
}
