package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cameronsjo/kerbi/internal/values"
)

// timestampFormats are tried in order when reading created_at. The last one
// is how older releases wrote timestamps.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 MST",
	"2006-01-02T15:04:05",
}

// ParseTimestamp reads a created_at value, reporting false for empty or
// unparsable input.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders a created_at value; nil renders as "".
func FormatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// record is the stored shape of one entry.
type record struct {
	Tag           string         `json:"tag"`
	Revision      string         `json:"revision,omitempty"`
	Message       *string        `json:"message"`
	Values        map[string]any `json:"values"`
	DefaultValues map[string]any `json:"default_values"`
	CreatedAt     *string        `json:"created_at"`
}

// looseRecord accepts whatever older writers stored in the scalar fields.
type looseRecord struct {
	Tag           string         `json:"tag"`
	Revision      any            `json:"revision"`
	Message       any            `json:"message"`
	Values        map[string]any `json:"values"`
	DefaultValues map[string]any `json:"default_values"`
	CreatedAt     any            `json:"created_at"`
}

// MarshalJSON writes the stored record shape.
func (e *Entry) MarshalJSON() ([]byte, error) {
	r := record{
		Tag:           e.tag,
		Revision:      e.Revision,
		Values:        nonNil(e.Values),
		DefaultValues: nonNil(e.DefaultValues),
	}
	if e.Message != "" {
		msg := e.Message
		r.Message = &msg
	}
	if e.CreatedAt != nil {
		ts := FormatTimestamp(e.CreatedAt)
		r.CreatedAt = &ts
	}
	return json.Marshal(r)
}

// UnmarshalJSON reads a stored record. A missing or unparsable created_at
// leaves CreatedAt nil.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var r looseRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	e.tag = r.Tag
	e.Revision = scalarString(r.Revision)
	e.Message = scalarString(r.Message)
	e.Values = nonNil(r.Values)
	e.DefaultValues = nonNil(r.DefaultValues)
	e.CreatedAt = nil
	if s, ok := r.CreatedAt.(string); ok {
		if ts, ok := ParseTimestamp(s); ok {
			e.CreatedAt = &ts
		}
	}
	return nil
}

// DecodeEntries parses a JSON array of stored records. Blank input is an
// empty history.
func DecodeEntries(data []byte) ([]*Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	kept := entries[:0]
	for _, e := range entries {
		if e != nil {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

// Decode builds a sorted EntrySet from a JSON array of stored records.
func Decode(data []byte, opts ...Option) (*EntrySet, error) {
	entries, err := DecodeEntries(data)
	if err != nil {
		return nil, err
	}
	return NewEntrySet(entries, opts...), nil
}

// Encode serializes the whole set, in set order, as a JSON array.
func (s *EntrySet) Encode() ([]byte, error) {
	entries := s.entries
	if entries == nil {
		entries = []*Entry{}
	}
	return json.Marshal(entries)
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return values.CopyMap(m)
}

func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
