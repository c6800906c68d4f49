package mixer

import (
	"context"
	"fmt"
	"sync"

	"github.com/cameronsjo/kerbi/internal/errkind"
)

// ErrDuplicateMixer is returned when a name is registered twice.
var ErrDuplicateMixer = errkind.New(errkind.Validation, "mixer already registered")

// Registry is an ordered set of named mixers. A binary builds one, registers
// its mixers and hands it to the command line. Reset empties it so tests can
// reuse a registry between invocations.
type Registry struct {
	mu       sync.Mutex
	names    []string
	mixers   map[string]Mixer
	revision string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{mixers: map[string]Mixer{}}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by init-time registration.
func Default() *Registry { return defaultRegistry }

// Register adds m under name.
func (r *Registry) Register(name string, m Mixer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mixers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMixer, name)
	}
	r.names = append(r.names, name)
	r.mixers[name] = m
	return nil
}

// MustRegister is Register that panics, for use in init functions.
func (r *Registry) MustRegister(name string, m Mixer) {
	if err := r.Register(name, m); err != nil {
		panic(err)
	}
}

// Lookup returns the mixer registered under name.
func (r *Registry) Lookup(name string) (Mixer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mixers[name]
	return m, ok
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// All returns registered mixers in registration order.
func (r *Registry) All() []Mixer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Mixer, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.mixers[name])
	}
	return out
}

// SetRevision records the project revision stamped on new state entries.
func (r *Registry) SetRevision(rev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revision = rev
}

// Revision returns the project revision, or "".
func (r *Registry) Revision() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revision
}

// Len returns the number of registered mixers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}

// Reset removes every registered mixer.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = nil
	r.mixers = map[string]Mixer{}
	r.revision = ""
}

// RunAll runs every registered mixer in order against the same values and
// concatenates their output.
func (r *Registry) RunAll(ctx context.Context, vals map[string]any, opts ...RunOption) ([]Fragment, error) {
	var out []Fragment
	for _, m := range r.All() {
		frags, err := Run(ctx, m, vals, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, frags...)
	}
	return out, nil
}
