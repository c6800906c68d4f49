package mixer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/cameronsjo/kerbi/internal/errkind"
	"github.com/cameronsjo/kerbi/internal/helm"
	"github.com/cameronsjo/kerbi/internal/values"
)

// DefaultRelease is used when no release name is given.
const DefaultRelease = "default"

// ErrMixer wraps an error returned by a mixer's Mix method that carries no
// kind of its own.
var ErrMixer = errkind.New(errkind.Unknown, "mixer failed")

// Mixer produces manifest fragments.
type Mixer interface {
	Mix(c *Context) error
}

// Func adapts a function to Mixer.
type Func func(c *Context) error

// Mix calls f.
func (f Func) Mix(c *Context) error { return f(c) }

// ValuesRooter is implemented by mixers that only want part of the value
// tree. ValuesRoot returns a dot-separated key path.
type ValuesRooter interface {
	ValuesRoot() string
}

// Locator is implemented by mixers whose units live in a directory of their
// own. Dir is relative to the unit filesystem, or absolute.
type Locator interface {
	Dir() string
}

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	release  string
	fsys     fs.FS
	renderer helm.Renderer
	logger   *slog.Logger
}

// WithRelease sets the release name. An empty name keeps the default.
func WithRelease(name string) RunOption {
	return func(rc *runConfig) {
		if name != "" {
			rc.release = name
		}
	}
}

// WithFS sets the filesystem units are read from. The working directory is
// used by default.
func WithFS(fsys fs.FS) RunOption {
	return func(rc *runConfig) { rc.fsys = fsys }
}

// WithChartRenderer sets the helm collaborator.
func WithChartRenderer(r helm.Renderer) RunOption {
	return func(rc *runConfig) { rc.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunOption {
	return func(rc *runConfig) { rc.logger = logger }
}

// Run mixes m against vals and returns its output. The value mapping is
// deep-cloned and narrowed to m's values root before m sees it.
func Run(ctx context.Context, m Mixer, vals map[string]any, opts ...RunOption) ([]Fragment, error) {
	rc := runConfig{release: DefaultRelease}
	for _, opt := range opts {
		opt(&rc)
	}
	if rc.fsys == nil {
		rc.fsys = os.DirFS(".")
	}
	if rc.logger == nil {
		rc.logger = slog.Default()
	}
	if rc.renderer == nil {
		rc.renderer = helm.New(helm.WithLogger(rc.logger))
	}

	c := newContext(ctx, m, ownValues(m, vals, false), rc)
	return c.run()
}

// ownValues computes the value tree a mixer instance sees.
func ownValues(m Mixer, vals map[string]any, override bool) values.Tree {
	tree := values.New(vals)
	if override {
		return tree
	}
	if r, ok := m.(ValuesRooter); ok && r.ValuesRoot() != "" {
		return tree.Sub(r.ValuesRoot())
	}
	return tree
}

func mixerName(m Mixer) string {
	return fmt.Sprintf("%T", m)
}
