package values

import "github.com/cameronsjo/kerbi/internal/errkind"

var (
	// ErrValuesFileNotFound is returned when an explicit values file
	// expression matches none of the candidate paths.
	ErrValuesFileNotFound = errkind.New(errkind.Resolution, "values file not found")

	// ErrMalformedInline is returned for an inline assignment that is not of
	// the form key.path=value.
	ErrMalformedInline = errkind.New(errkind.Resolution, "malformed inline assignment")

	// ErrNotMapping is returned when a values document's root is not a mapping.
	ErrNotMapping = errkind.New(errkind.Resolution, "values document root is not a mapping")

	// ErrDecrypt is returned when an encrypted values file cannot be decrypted.
	ErrDecrypt = errkind.New(errkind.Collaborator, "decrypt values file")
)
