package datetime

import (
	"encoding/json"
	"time"
)

// Timestamp is a point in time stored as a zone-less ISO string in local
// time, the format used by existing record documents.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// String renders the timestamp in ISOLayout as local wall-clock time, or ""
// when unset. Zoned values are converted first so reading the string back
// yields the same instant.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format(ISOLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler. Null and empty strings leave the
// timestamp unset.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || *raw == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseISO(*raw)
	if err != nil {
		return err
	}
	t.Time = parsed.In(time.Local)
	return nil
}

// MarshalYAML renders the timestamp as a plain string.
func (t Timestamp) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}
