// Package errkind tags sentinel errors with a category so callers at the CLI
// boundary can tell recoverable failures from fatal ones without matching on
// individual error values.
package errkind

import (
	"errors"
)

// Kind is the category of a failure.
type Kind int

const (
	// Unknown is reported for errors that carry no kind.
	Unknown Kind = iota
	// Resolution covers unit lookups and tag expressions that cannot be resolved.
	Resolution
	// Transition covers illegal lifecycle operations on an entry.
	Transition
	// Validation covers aggregated entry violations found before a save.
	Validation
	// BackendNotReady covers a missing or unreadable remote namespace or resource.
	BackendNotReady
	// Collaborator covers failures of external processes and remote APIs.
	Collaborator
	// Conflict covers a remote write rejected because the resource changed.
	Conflict
)

var kindNames = map[Kind]string{
	Unknown:         "unknown",
	Resolution:      "resolution",
	Transition:      "transition",
	Validation:      "validation",
	BackendNotReady: "backend-not-ready",
	Collaborator:    "collaborator",
	Conflict:        "conflict",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[Unknown]
}

// Error is a sentinel error that carries a Kind.
type Error struct {
	kind Kind
	text string
}

// New returns a sentinel error of the given kind.
func New(kind Kind, text string) *Error {
	return &Error{kind: kind, text: text}
}

func (e *Error) Error() string { return e.text }

// Kind returns the category of the error.
func (e *Error) Kind() Kind { return e.kind }

// Kinded is implemented by errors that report their own category.
type Kinded interface {
	error
	Kind() Kind
}

// Of returns the kind of the first error in err's chain that carries one.
func Of(err error) Kind {
	if err == nil {
		return Unknown
	}
	var k Kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return Unknown
}

// Is reports whether err belongs to kind.
func Is(err error, kind Kind) bool {
	return Of(err) == kind
}

// Recoverable reports whether the user can fix the failure by changing input,
// as opposed to an environment or remote failure.
func Recoverable(err error) bool {
	switch Of(err) {
	case Resolution, Transition, Validation:
		return true
	default:
		return false
	}
}
