// Package mixer is the composition engine that turns values into Kubernetes
// manifests.
//
// A Mixer receives a read-only value tree through its Context and emits
// fragments, each one a mapping that describes a single resource. Mixers load
// template units from a filesystem, render Helm charts, nest other mixers,
// filter fragments by kind and name, and patch everything produced inside a
// WithPatch scope.
//
//	type Web struct{}
//
//	func (Web) Dir() string { return "web" }
//
//	func (Web) Mix(c *mixer.Context) error {
//		return c.WithPatch(map[string]any{"metadata": map[string]any{"labels": map[string]any{"team": "a"}}}, func() error {
//			frags, err := c.LoadUnit("deployment")
//			if err != nil {
//				return err
//			}
//			c.Emit(frags)
//			return nil
//		})
//	}
//
// Only Emit appends to a mixer's output. Every other operation returns its
// fragments so the caller decides what to keep.
package mixer
