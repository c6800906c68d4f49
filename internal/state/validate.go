package state

import (
	"fmt"
	"strings"

	"github.com/cameronsjo/kerbi/internal/errkind"
)

// FieldError is one attribute violation found by Validate.
type FieldError struct {
	Field   string `json:"attr" yaml:"attr"`
	Message string `json:"msg" yaml:"msg"`
	Value   any    `json:"value" yaml:"value"`
}

// Validate records attribute violations without failing. It replaces the
// result of any previous run.
func (e *Entry) Validate() {
	e.errors = nil
	if strings.TrimSpace(e.tag) == "" {
		e.errors = append(e.errors, FieldError{Field: "tag", Message: "Cannot be empty", Value: e.tag})
	}
	e.validated = true
}

// IsValid reports whether the last Validate run found no violations.
// Calling it before Validate is a programming error and panics.
func (e *Entry) IsValid() bool {
	if !e.validated {
		panic("state: IsValid called before Validate")
	}
	return len(e.errors) == 0
}

// Errors returns the violations found by the last Validate run.
func (e *Entry) Errors() []FieldError {
	out := make([]FieldError, len(e.errors))
	copy(out, e.errors)
	return out
}

// ValidationError aggregates the violations of every invalid entry.
type ValidationError struct {
	// Tags lists offending entries in set order.
	Tags []string

	// Violations maps each offending tag to its field errors.
	Violations map[string][]FieldError
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(ErrValidation.Error())
	b.WriteString(":")
	for _, tag := range e.Tags {
		fmt.Fprintf(&b, "\nEntry[%q]", tag)
		for _, fe := range e.Violations[tag] {
			fmt.Fprintf(&b, "\n  %s[%q]: %s", fe.Field, fmt.Sprint(fe.Value), fe.Message)
		}
	}
	return b.String()
}

// Kind reports the validation category.
func (e *ValidationError) Kind() errkind.Kind { return errkind.Validation }

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidateAll validates every entry and returns a *ValidationError naming
// each invalid one, or nil.
func (s *EntrySet) ValidateAll() error {
	var verr *ValidationError
	for _, entry := range s.entries {
		entry.Validate()
		if entry.IsValid() {
			continue
		}
		if verr == nil {
			verr = &ValidationError{Violations: map[string][]FieldError{}}
		}
		if _, seen := verr.Violations[entry.tag]; !seen {
			verr.Tags = append(verr.Tags, entry.tag)
		}
		verr.Violations[entry.tag] = append(verr.Violations[entry.tag], entry.Errors()...)
	}
	if verr == nil {
		return nil
	}
	return verr
}
