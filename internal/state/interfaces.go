package state

// TagResolver turns a tag expression into a literal tag.
type TagResolver interface {
	ResolveTag(expr string, mode Mode) (string, error)
}

// Describable is implemented by records that render themselves for display.
type Describable interface {
	Describe() map[string]any
}
