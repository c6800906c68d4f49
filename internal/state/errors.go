package state

import "github.com/cameronsjo/kerbi/internal/errkind"

var (
	// ErrNotFound is returned when a resolved tag matches no entry.
	ErrNotFound = errkind.New(errkind.Resolution, "state not found")

	// ErrNoPriorState is returned when a read marker such as @latest has no
	// entry of its kind to resolve to.
	ErrNoPriorState = errkind.New(errkind.Resolution, "no prior state")

	// ErrIllegalTagExpr is returned when a tag expression uses a marker from
	// the other mode's vocabulary.
	ErrIllegalTagExpr = errkind.New(errkind.Resolution, "illegal tag expression")

	// ErrTagSpaceExhausted is returned when no unused random tag could be found.
	ErrTagSpaceExhausted = errkind.New(errkind.Resolution, "could not generate an unused tag")

	// ErrNotPromotable is returned when promoting an entry that is not a candidate.
	ErrNotPromotable = errkind.New(errkind.Transition, "state is not a candidate and cannot be promoted")

	// ErrNotDemotable is returned when demoting an entry that is already a candidate.
	ErrNotDemotable = errkind.New(errkind.Transition, "state is already a candidate and cannot be demoted")

	// ErrNoSuchAttr is returned when assigning an attribute that is not settable.
	ErrNoSuchAttr = errkind.New(errkind.Transition, "no such settable state attribute")

	// ErrInvalidAttrValue is returned when a settable attribute receives an unusable value.
	ErrInvalidAttrValue = errkind.New(errkind.Transition, "invalid state attribute value")

	// ErrTagTaken is returned when retagging onto a tag another entry already uses.
	ErrTagTaken = errkind.New(errkind.Transition, "tag already in use")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errkind.New(errkind.Validation, "cannot write state because of validation errors")

	// ErrMalformedRecord is returned when stored entries cannot be decoded.
	ErrMalformedRecord = errkind.New(errkind.Collaborator, "malformed state record")
)
