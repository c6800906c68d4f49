package output

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/cameronsjo/kerbi/internal/backend"
	"github.com/cameronsjo/kerbi/internal/state"
)

// LatestMarker is appended to the tag of the latest committed entry.
const LatestMarker = " [latest]"

// Entries lists state entries.
type Entries []*state.Entry

// Data implements View.
func (l Entries) Data() any {
	out := make([]map[string]any, len(l))
	for i, e := range l {
		out[i] = e.Describe()
	}
	return out
}

// Table implements View.
func (l Entries) Table() Table {
	t := Table{Headers: []string{"TAG", "MESSAGE", "ASSIGNMENTS", "OVERRIDES", "CREATED"}}
	for _, e := range l {
		t.Rows = append(t.Rows, []string{
			displayTag(e),
			truncate(e.Message, 40),
			strconv.Itoa(len(e.Values)),
			strconv.Itoa(len(e.OverriddenKeys())),
			ago(e),
		})
	}
	return t
}

// Entry shows one entry in full.
type Entry struct {
	*state.Entry
}

// Data implements View.
func (e Entry) Data() any { return e.Describe() }

// Table implements View.
func (e Entry) Table() Table {
	return Table{
		Headers: []string{"KEY", "VALUE"},
		Rows: [][]string{
			{"TAG", displayTag(e.Entry)},
			{"REVISION", e.Revision},
			{"MESSAGE", e.Message},
			{"CREATED_AT", state.FormatTimestamp(e.CreatedAt)},
			{"VALUES", flatten(e.Values)},
			{"DEFAULT_VALUES", flatten(e.DefaultValues)},
			{"OVERRIDDEN_KEYS", strings.Join(e.OverriddenKeys(), ", ")},
		},
	}
}

// Releases lists stored releases.
type Releases []*backend.Release

// Data implements View.
func (l Releases) Data() any {
	out := make([]map[string]any, len(l))
	for i, r := range l {
		out[i] = r.Describe()
	}
	return out
}

// Table implements View.
func (l Releases) Table() Table {
	t := Table{Headers: []string{"NAME", "BACKEND", "NAMESPACE", "RESOURCE", "STATES", "LATEST"}}
	for _, r := range l {
		states := strconv.Itoa(r.States)
		if r.Err != nil {
			states = "?"
		}
		t.Rows = append(t.Rows, []string{r.Name, r.Backend, r.Namespace, r.Resource, states, r.Latest})
	}
	return t
}

func displayTag(e *state.Entry) string {
	if e.IsLatest() {
		return e.Tag() + LatestMarker
	}
	return e.Tag()
}

func ago(e *state.Entry) string {
	if e.CreatedAt == nil {
		return ""
	}
	return humanize.Time(*e.CreatedAt)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// flatten renders a mapping as comma-separated dotted assignments.
func flatten(m map[string]any) string {
	var parts []string
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		if sub, ok := v.(map[string]any); ok && len(sub) > 0 {
			for _, k := range sortedKeys(sub) {
				key := k
				if prefix != "" {
					key = prefix + "." + k
				}
				walk(key, sub[k])
			}
			return
		}
		if prefix != "" {
			parts = append(parts, fmt.Sprintf("%s=%v", prefix, v))
		}
	}
	walk("", m)
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
