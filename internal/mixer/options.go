package mixer

import (
	"github.com/cameronsjo/kerbi/internal/values"
)

// Option tunes a single Normalize, LoadUnit, LoadDirectory, RenderChart or
// Compose call.
type Option func(*options)

type options struct {
	only    []Rule
	except  []Rule
	noPatch bool

	values    map[string]any
	hasValues bool

	blacklist []string
	extras    map[string]any

	release        string
	chartValues    map[string]any
	hasChartValues bool
	chartArgs      string
	chartRepo      string
	chartNamespace string
	chartSet       map[string]string
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Only keeps fragments matching at least one rule.
func Only(rules ...Rule) Option {
	return func(o *options) { o.only = append(o.only, rules...) }
}

// Except drops fragments matching any rule.
func Except(rules ...Rule) Option {
	return func(o *options) { o.except = append(o.except, rules...) }
}

// NoPatch skips the active patch stack.
func NoPatch() Option {
	return func(o *options) { o.noPatch = true }
}

// WithValues hands a child mixer an explicit value mapping. The child's
// values root is ignored.
func WithValues(m map[string]any) Option {
	return func(o *options) {
		o.values = values.CopyMap(m)
		if o.values == nil {
			o.values = map[string]any{}
		}
		o.hasValues = true
	}
}

// Blacklist skips directory entries by file name.
func Blacklist(names ...string) Option {
	return func(o *options) { o.blacklist = append(o.blacklist, names...) }
}

// Extras exposes additional data to templates under .Extras.
func Extras(m map[string]any) Option {
	return func(o *options) { o.extras = values.MergeAll(o.extras, m) }
}

// Release overrides the release name passed to helm.
func Release(name string) Option {
	return func(o *options) { o.release = name }
}

// ChartValues replaces the values handed to helm, which default to the
// mixer's own values.
func ChartValues(m map[string]any) Option {
	return func(o *options) {
		o.chartValues = values.CopyMap(m)
		o.hasChartValues = true
	}
}

// ChartArgs appends a shell-style string of helm flags.
func ChartArgs(args string) Option {
	return func(o *options) { o.chartArgs = args }
}

// ChartRepo passes --repo to helm.
func ChartRepo(url string) Option {
	return func(o *options) { o.chartRepo = url }
}

// ChartNamespace passes --namespace to helm.
func ChartNamespace(ns string) Option {
	return func(o *options) { o.chartNamespace = ns }
}

// ChartSet adds --set key=value flags.
func ChartSet(assignments map[string]string) Option {
	return func(o *options) {
		if o.chartSet == nil {
			o.chartSet = map[string]string{}
		}
		for k, v := range assignments {
			o.chartSet[k] = v
		}
	}
}
