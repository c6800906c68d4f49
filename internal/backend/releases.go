package backend

import (
	"context"
	"sort"

	"github.com/cameronsjo/kerbi/internal/kube"
	"github.com/cameronsjo/kerbi/internal/state"
)

// Release summarizes one stored release.
type Release struct {
	Name      string
	Namespace string
	Resource  string
	Backend   string
	States    int
	Latest    string

	// Err is set when the stored entries could not be decoded.
	Err error
}

// Describe returns a display-ready record.
func (r *Release) Describe() map[string]any {
	return map[string]any{
		"name":      r.Name,
		"backend":   r.Backend,
		"namespace": r.Namespace,
		"resource":  r.Resource,
		"states":    r.States,
		"latest":    r.Latest,
	}
}

var _ state.Describable = (*Release)(nil)

// Releases lists every release stored through store. An empty namespace
// searches all namespaces.
func Releases(ctx context.Context, store kube.Store, namespace string) ([]*Release, error) {
	resources, err := store.List(ctx, namespace, CreatorLabel+"="+CreatorValue)
	if err != nil {
		return nil, err
	}

	var releases []*Release
	for _, res := range resources {
		name, ok := ReleaseFromResourceName(res.Name)
		if !ok {
			continue
		}
		rel := &Release{
			Name:      name,
			Namespace: res.Namespace,
			Resource:  res.Name,
			Backend:   store.Kind(),
		}
		set, err := state.Decode([]byte(res.Data[EntriesKey]))
		if err != nil {
			rel.Err = err
		} else {
			rel.States = set.Len()
			if latest := set.Latest(); latest != nil {
				rel.Latest = latest.Tag()
			}
		}
		releases = append(releases, rel)
	}

	sort.SliceStable(releases, func(i, j int) bool {
		if releases[i].Namespace != releases[j].Namespace {
			return releases[i].Namespace < releases[j].Namespace
		}
		return releases[i].Name < releases[j].Name
	})
	return releases, nil
}
