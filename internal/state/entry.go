package state

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cameronsjo/kerbi/internal/values"
)

// CandidatePrefix marks an entry as a candidate.
const CandidatePrefix = "[cand]-"

// Settable attribute names accepted by Entry.Set.
const (
	AttrMessage   = "message"
	AttrCreatedAt = "created_at"
)

// SettableAttrs lists the attributes a user may assign directly.
var SettableAttrs = []string{AttrMessage, AttrCreatedAt}

// Entry is one tagged snapshot of compiled values.
type Entry struct {
	tag string

	// Revision is an informational version of the templates that produced
	// the values.
	Revision string

	// Message is a free-form note.
	Message string

	// Values is the fully compiled value mapping.
	Values map[string]any

	// DefaultValues is the file-sourced mapping the values were compiled from.
	DefaultValues map[string]any

	// CreatedAt is nil when the timestamp is unknown.
	CreatedAt *time.Time

	set       *EntrySet
	errors    []FieldError
	validated bool
}

// NewEntry returns an entry with only its tag set.
func NewEntry(tag string) *Entry {
	return &Entry{
		tag:           tag,
		Values:        map[string]any{},
		DefaultValues: map[string]any{},
	}
}

// Tag returns the literal tag.
func (e *Entry) Tag() string { return e.tag }

// Candidate reports whether the tag carries the candidate prefix.
func (e *Entry) Candidate() bool {
	return strings.HasPrefix(e.tag, CandidatePrefix)
}

// Committed is the negation of Candidate.
func (e *Entry) Committed() bool { return !e.Candidate() }

// IsLatest reports whether this entry is the newest committed entry of its set.
func (e *Entry) IsLatest() bool {
	return e.set != nil && e.set.Latest() == e
}

// Promote strips the candidate prefix. It returns the old tag.
func (e *Entry) Promote() (string, error) {
	if !e.Candidate() {
		return "", fmt.Errorf("%w: %s", ErrNotPromotable, e.tag)
	}
	old := e.tag
	e.tag = strings.TrimPrefix(e.tag, CandidatePrefix)
	return old, nil
}

// Demote adds the candidate prefix. It returns the old tag.
func (e *Entry) Demote() (string, error) {
	if e.Candidate() {
		return "", fmt.Errorf("%w: %s", ErrNotDemotable, e.tag)
	}
	old := e.tag
	e.tag = CandidatePrefix + e.tag
	return old, nil
}

// Retag replaces the tag with the write-mode resolution of expr and returns
// the old tag. An entry that belongs to no set only accepts literal tags.
func (e *Entry) Retag(expr string) (string, error) {
	resolved := expr
	if e.set != nil {
		var err error
		resolved, err = e.set.ResolveTag(expr, WriteMode)
		if err != nil {
			return "", err
		}
		if other := e.set.Get(resolved); other != nil && other != e {
			return "", fmt.Errorf("%w: %s", ErrTagTaken, resolved)
		}
	}
	old := e.tag
	e.tag = resolved
	return old, nil
}

// Set assigns a settable attribute from its string form and returns the old
// value in string form.
func (e *Entry) Set(attr, value string) (string, error) {
	switch attr {
	case AttrMessage:
		old := e.Message
		e.Message = value
		return old, nil
	case AttrCreatedAt:
		ts, ok := ParseTimestamp(value)
		if !ok {
			return "", fmt.Errorf("%w: %s=%q is not a timestamp", ErrInvalidAttrValue, attr, value)
		}
		old := FormatTimestamp(e.CreatedAt)
		e.Touch(ts)
		return old, nil
	default:
		return "", fmt.Errorf("%w: %q (settable: %s)", ErrNoSuchAttr, attr, strings.Join(SettableAttrs, ", "))
	}
}

// Get returns an attribute in string form, for change reporting.
func (e *Entry) Get(attr string) string {
	switch attr {
	case "tag":
		return e.tag
	case "revision":
		return e.Revision
	case AttrMessage:
		return e.Message
	case AttrCreatedAt:
		return FormatTimestamp(e.CreatedAt)
	default:
		return ""
	}
}

// Touch sets CreatedAt and keeps the owning set sorted.
func (e *Entry) Touch(t time.Time) {
	ts := t
	e.CreatedAt = &ts
	if e.set != nil {
		e.set.Sort()
	}
}

// OverridesDelta diffs the default values against the compiled values.
// Leaves are [old, new] pairs where old is from DefaultValues and new is
// from Values.
func (e *Entry) OverridesDelta() map[string]any {
	return values.Diff(e.DefaultValues, e.Values)
}

// OverriddenKeys returns the sorted top-level keys of OverridesDelta.
func (e *Entry) OverriddenKeys() []string {
	delta := e.OverridesDelta()
	keys := make([]string, 0, len(delta))
	for k := range delta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Describe returns a display-ready record of the entry.
func (e *Entry) Describe() map[string]any {
	return map[string]any{
		"tag":             e.tag,
		"revision":        e.Revision,
		"message":         e.Message,
		"candidate":       e.Candidate(),
		"latest":          e.IsLatest(),
		"values":          values.CopyMap(e.Values),
		"default_values":  values.CopyMap(e.DefaultValues),
		"overridden_keys": e.OverriddenKeys(),
		"created_at":      FormatTimestamp(e.CreatedAt),
	}
}

var _ Describable = (*Entry)(nil)
