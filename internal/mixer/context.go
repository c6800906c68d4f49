package mixer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/cameronsjo/kerbi/internal/errkind"
	"github.com/cameronsjo/kerbi/internal/helm"
	"github.com/cameronsjo/kerbi/internal/values"
)

// Context is handed to Mix. It carries the mixer's values and release name,
// its accumulated output and its patch stack. A Context belongs to one mixer
// invocation and is not safe for concurrent use.
type Context struct {
	ctx      context.Context
	mixer    Mixer
	values   values.Tree
	release  string
	fsys     fs.FS
	renderer helm.Renderer
	logger   *slog.Logger
	base     runConfig

	output  []Fragment
	patches [][]map[string]any
}

func newContext(ctx context.Context, m Mixer, vals values.Tree, rc runConfig) *Context {
	return &Context{
		ctx:      ctx,
		mixer:    m,
		values:   vals,
		release:  rc.release,
		fsys:     rc.fsys,
		renderer: rc.renderer,
		logger:   rc.logger.With(slog.String("mixer", mixerName(m))),
		base:     rc,
	}
}

func (c *Context) run() ([]Fragment, error) {
	c.logger.DebugContext(c.ctx, "mixing", slog.String("release", c.release))
	if err := c.mixer.Mix(c); err != nil {
		if errkind.Of(err) == errkind.Unknown {
			return nil, fmt.Errorf("%w: %s: %w", ErrMixer, mixerName(c.mixer), err)
		}
		return nil, fmt.Errorf("%s: %w", mixerName(c.mixer), err)
	}
	return c.output, nil
}

// Values returns the mixer's read-only value tree.
func (c *Context) Values() values.Tree { return c.values }

// Release returns the release name.
func (c *Context) Release() string { return c.release }

// Ctx returns the context.Context the mixer runs under.
func (c *Context) Ctx() context.Context { return c.ctx }

// Logger returns a logger tagged with the mixer's type.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Output returns a copy of what has been emitted so far.
func (c *Context) Output() []Fragment {
	out := make([]Fragment, len(c.output))
	for i, f := range c.output {
		out[i] = f.Clone()
	}
	return out
}

// Emit appends input to the output. Input may be a mapping or a list; nil
// elements and non-mappings are dropped. Emitted fragments are cloned, so
// later changes to input do not leak into the output.
func (c *Context) Emit(input any) []Fragment {
	frags := Fragments(input)
	for _, f := range frags {
		c.output = append(c.output, f.Clone())
	}
	return frags
}

// Normalize coerces input into fragments, filters them and applies the
// active patch stack. Nothing is emitted.
func (c *Context) Normalize(input any, opts ...Option) ([]Fragment, error) {
	return c.normalize(input, buildOptions(opts))
}

func (c *Context) normalize(input any, o options) ([]Fragment, error) {
	frags, err := Filter(Fragments(input), o.only, o.except)
	if err != nil {
		return nil, err
	}
	if o.noPatch || len(c.patches) == 0 {
		return frags, nil
	}

	out := make([]Fragment, len(frags))
	for i, f := range frags {
		out[i] = c.patch(f)
	}
	return out, nil
}

// patch merges every active layer into f, outermost first.
func (c *Context) patch(f Fragment) Fragment {
	merged := map[string]any(f)
	for _, level := range c.patches {
		for _, p := range level {
			merged = values.DeepMerge(merged, p)
		}
	}
	return Fragment(merged)
}

// WithPatch pushes patch onto the patch stack for the duration of fn. A list
// of mappings pushes them as one level, applied in order. The stack is
// restored however fn returns.
func (c *Context) WithPatch(patch any, fn func() error) error {
	level := make([]map[string]any, 0)
	for _, f := range Fragments(patch) {
		level = append(level, f.Map())
	}

	c.patches = append(c.patches, level)
	depth := len(c.patches)
	defer func() { c.patches = c.patches[:depth-1] }()

	return fn()
}

// PatchDepth returns the number of active patch levels.
func (c *Context) PatchDepth() int { return len(c.patches) }

// LoadUnit renders one template unit and normalizes the fragments it holds.
func (c *Context) LoadUnit(name string, opts ...Option) ([]Fragment, error) {
	o := buildOptions(opts)
	path, err := c.resolveUnit(name)
	if err != nil {
		return nil, err
	}
	frags, err := c.loadFile(path, o)
	if err != nil {
		return nil, err
	}
	return c.normalize(frags, o)
}

// LoadDirectory renders every unit in a directory, in file name order, and
// normalizes the result.
func (c *Context) LoadDirectory(name string, opts ...Option) ([]Fragment, error) {
	o := buildOptions(opts)
	files, err := c.unitsIn(name, o.blacklist)
	if err != nil {
		return nil, err
	}

	var all []Fragment
	for _, path := range files {
		frags, err := c.loadFile(path, o)
		if err != nil {
			return nil, err
		}
		all = append(all, frags...)
	}
	return c.normalize(all, o)
}

// ErrNoRenderer is returned by RenderChart when no helm collaborator is set.
var ErrNoRenderer = errkind.New(errkind.Collaborator, "no chart renderer configured")

// RenderChart templates a helm chart with the mixer's values, or ChartValues
// when given, and normalizes the objects it yields.
func (c *Context) RenderChart(chartID string, opts ...Option) ([]Fragment, error) {
	if c.renderer == nil {
		return nil, ErrNoRenderer
	}
	o := buildOptions(opts)

	release := c.release
	if o.release != "" {
		release = o.release
	}
	chartValues := c.values.Raw()
	if o.hasChartValues {
		chartValues = o.chartValues
	}

	c.logger.DebugContext(c.ctx, "rendering chart",
		slog.String("chart", chartID),
		slog.String("release", release))

	objects, err := c.renderer.Render(c.ctx, release, chartID, helm.Options{
		Values:    chartValues,
		Args:      o.chartArgs,
		Repo:      o.chartRepo,
		Namespace: o.chartNamespace,
		Set:       o.chartSet,
	})
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", chartID, err)
	}
	return c.normalize(objects, o)
}

// Compose runs child and normalizes its output. The child sees this mixer's
// values narrowed to its own values root, unless WithValues supplies a
// mapping, in which case no narrowing happens. The child starts with an
// empty patch stack; this mixer's patches reach its output through
// normalization here.
func (c *Context) Compose(child Mixer, opts ...Option) ([]Fragment, error) {
	o := buildOptions(opts)

	var tree values.Tree
	if o.hasValues {
		tree = ownValues(child, o.values, true)
	} else {
		tree = ownValues(child, c.values.Raw(), false)
	}

	release := c.release
	if o.release != "" {
		release = o.release
	}

	rc := c.base
	rc.release = release
	sub := newContext(c.ctx, child, tree, rc)
	frags, err := sub.run()
	if err != nil {
		return nil, err
	}
	return c.normalize(frags, o)
}
