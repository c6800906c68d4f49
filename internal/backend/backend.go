// Package backend binds a release's EntrySet to the cluster object that
// stores it.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/cameronsjo/kerbi/internal/errkind"
	"github.com/cameronsjo/kerbi/internal/kube"
	"github.com/cameronsjo/kerbi/internal/state"
)

const (
	// EntriesKey is the data field holding the JSON-encoded entry list.
	EntriesKey = "entries"

	// CreatorLabel marks resources this tool owns.
	CreatorLabel = "creator"

	// CreatorValue is the value of CreatorLabel.
	CreatorValue = "kerbi"
)

// resourcePattern extracts the release name from a resource name.
var resourcePattern = regexp.MustCompile(`^kerbi-(.*)-db$`)

var (
	// ErrNotReady is returned when the namespace or resource is missing or
	// its data cannot be read.
	ErrNotReady = errkind.New(errkind.BackendNotReady, "state backend not ready")

	// ErrConflict is returned when another writer saved between our load and
	// our save.
	ErrConflict = errkind.New(errkind.Conflict, "state changed since it was loaded; reload and retry")
)

// ResourceName returns the name of the object that stores a release's state.
func ResourceName(release string) string {
	return "kerbi-" + release + "-db"
}

// ReleaseFromResourceName is the inverse of ResourceName.
func ReleaseFromResourceName(name string) (string, bool) {
	m := resourcePattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Dialer connects to the cluster.
type Dialer func() (kube.Store, error)

// Backend persists one release's entries.
type Backend struct {
	dial      Dialer
	store     kube.Store
	dialErr   error
	dialed    bool
	release   string
	namespace string

	checkVersion bool
	setOpts      []state.Option
	logger       *slog.Logger

	resource *kube.Resource
	set      *state.EntrySet
}

// Option configures a Backend.
type Option func(*Backend)

// WithoutVersionCheck makes Save overwrite unconditionally, so concurrent
// writers silently replace each other's changes.
func WithoutVersionCheck() Option {
	return func(b *Backend) {
		b.checkVersion = false
	}
}

// WithEntrySetOptions passes options to every EntrySet the backend builds.
func WithEntrySetOptions(opts ...state.Option) Option {
	return func(b *Backend) {
		b.setOpts = append(b.setOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// New returns a Backend over an already connected store.
func New(store kube.Store, release, namespace string, opts ...Option) *Backend {
	return Dial(func() (kube.Store, error) { return store, nil }, release, namespace, opts...)
}

// Dial returns a Backend that connects on first use.
func Dial(dial Dialer, release, namespace string, opts ...Option) *Backend {
	b := &Backend{
		dial:         dial,
		release:      release,
		namespace:    namespace,
		checkVersion: true,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Release returns the release name.
func (b *Backend) Release() string { return b.release }

// Namespace returns the namespace holding the resource.
func (b *Backend) Namespace() string { return b.namespace }

// ResourceName returns the backing object's name.
func (b *Backend) ResourceName() string { return ResourceName(b.release) }

// Kind returns the store kind, or "" when not connected.
func (b *Backend) Kind() string {
	store, err := b.conn()
	if err != nil {
		return ""
	}
	return store.Kind()
}

func (b *Backend) conn() (kube.Store, error) {
	if !b.dialed {
		b.store, b.dialErr = b.dial()
		b.dialed = true
	}
	return b.store, b.dialErr
}

// ProvisionReport tells which missing pieces were created.
type ProvisionReport struct {
	NamespaceCreated bool
	ResourceCreated  bool
}

// ProvisionMissingResources creates the namespace and resource if absent.
// Running it again is a no-op.
func (b *Backend) ProvisionMissingResources(ctx context.Context) (*ProvisionReport, error) {
	store, err := b.conn()
	if err != nil {
		return nil, err
	}
	report := &ProvisionReport{}

	err = store.GetNamespace(ctx, b.namespace)
	switch {
	case errors.Is(err, kube.ErrNotFound):
		if err := store.CreateNamespace(ctx, b.namespace); err != nil && !errors.Is(err, kube.ErrAlreadyExists) {
			return nil, err
		}
		report.NamespaceCreated = true
		b.logger.Debug("created namespace", "namespace", b.namespace)
	case err != nil:
		return nil, err
	}

	_, err = store.Get(ctx, b.namespace, b.ResourceName())
	switch {
	case errors.Is(err, kube.ErrNotFound):
		_, err := store.Create(ctx, &kube.Resource{
			Name:      b.ResourceName(),
			Namespace: b.namespace,
			Labels:    map[string]string{CreatorLabel: CreatorValue},
			Data:      map[string]string{EntriesKey: "[]"},
		})
		if err != nil && !errors.Is(err, kube.ErrAlreadyExists) {
			return nil, err
		}
		report.ResourceCreated = true
		b.logger.Debug("created state resource", "kind", store.Kind(), "namespace", b.namespace, "name", b.ResourceName())
	case err != nil:
		return nil, err
	}

	b.invalidate()
	return report, nil
}

// Load returns the release's entries. The result is memoized until the next
// Save, DeleteEntry, or Delete.
func (b *Backend) Load(ctx context.Context) (*state.EntrySet, error) {
	if b.set != nil {
		return b.set, nil
	}

	resource, err := b.loadResource(ctx)
	if err != nil {
		return nil, err
	}

	opts := append([]state.Option{state.WithRelease(b.release)}, b.setOpts...)
	set, err := state.Decode([]byte(resource.Data[EntriesKey]), opts...)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.describe(), err)
	}

	b.logger.Debug("loaded state", "resource", b.describe(), "entries", set.Len())
	b.set = set
	return set, nil
}

func (b *Backend) loadResource(ctx context.Context) (*kube.Resource, error) {
	if b.resource != nil {
		return b.resource, nil
	}
	store, err := b.conn()
	if err != nil {
		return nil, err
	}
	resource, err := store.Get(ctx, b.namespace, b.ResourceName())
	if err != nil {
		if errors.Is(err, kube.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s does not exist (run release init %s)", ErrNotReady, b.describe(), b.release)
		}
		return nil, err
	}
	b.resource = resource
	return resource, nil
}

// Save validates every entry and replaces the stored list wholesale.
func (b *Backend) Save(ctx context.Context) error {
	set, err := b.Load(ctx)
	if err != nil {
		return err
	}
	if err := set.ValidateAll(); err != nil {
		return err
	}

	data, err := set.Encode()
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}

	store, err := b.conn()
	if err != nil {
		return err
	}

	update := &kube.Resource{
		Name:      b.resource.Name,
		Namespace: b.resource.Namespace,
		Labels:    b.resource.Labels,
		Data:      copyData(b.resource.Data),
	}
	update.Data[EntriesKey] = string(data)
	if b.checkVersion {
		update.Version = b.resource.Version
	}

	if _, err := store.Update(ctx, update); err != nil {
		if errors.Is(err, kube.ErrConflict) {
			return fmt.Errorf("%w: %s", ErrConflict, b.describe())
		}
		return err
	}

	b.logger.Debug("saved state", "resource", b.describe(), "entries", set.Len())
	b.invalidate()
	return nil
}

// DeleteEntry removes the entry with entry's tag and saves.
func (b *Backend) DeleteEntry(ctx context.Context, entry *state.Entry) error {
	set, err := b.Load(ctx)
	if err != nil {
		return err
	}
	set.Remove(entry.Tag())
	return b.Save(ctx)
}

// Delete removes the backing resource.
func (b *Backend) Delete(ctx context.Context) error {
	store, err := b.conn()
	if err != nil {
		return err
	}
	defer b.invalidate()
	return store.Delete(ctx, b.namespace, b.ResourceName())
}

// IsReady reports whether the namespace and resource exist and the stored
// data decodes.
func (b *Backend) IsReady(ctx context.Context) bool {
	store, err := b.conn()
	if err != nil {
		return false
	}
	if store.GetNamespace(ctx, b.namespace) != nil {
		return false
	}
	_, err = b.Load(ctx)
	return err == nil
}

// RequireReady returns ErrNotReady unless IsReady holds.
func (b *Backend) RequireReady(ctx context.Context) error {
	if b.IsReady(ctx) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotReady, b.describe())
}

func (b *Backend) invalidate() {
	b.set = nil
	b.resource = nil
}

func (b *Backend) describe() string {
	kind := "resource"
	if b.store != nil {
		kind = b.store.Kind()
	}
	return fmt.Sprintf("%s %s/%s", kind, b.namespace, b.ResourceName())
}

func copyData(data map[string]string) map[string]string {
	out := make(map[string]string, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	return out
}
