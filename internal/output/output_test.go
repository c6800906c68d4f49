package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/kerbi/internal/state"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatYAML, false},
		{"JSON", FormatJSON, false},
		{"table", FormatTable, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManifests(t *testing.T) {
	docs := []map[string]any{
		{"kind": "Pod", "metadata": map[string]any{"name": "a"}},
		{"kind": "Service"},
	}

	var buf bytes.Buffer
	require.NoError(t, Manifests(&buf, FormatYAML, docs))
	assert.Equal(t, "kind: Pod\nmetadata:\n  name: a\n---\nkind: Service\n", buf.String())

	buf.Reset()
	require.NoError(t, Manifests(&buf, FormatJSON, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func sampleEntries() Entries {
	created := time.Now().Add(-2 * time.Hour)
	committed := state.NewEntry("one")
	committed.Message = "first release"
	committed.Values = map[string]any{"a": map[string]any{"b": 2}, "c": 1}
	committed.DefaultValues = map[string]any{"a": map[string]any{"b": 1}, "c": 1}
	committed.CreatedAt = &created

	set := state.NewEntrySet([]*state.Entry{committed})
	return Entries(set.Entries())
}

func TestEntriesTable(t *testing.T) {
	entries := sampleEntries()
	tbl := entries.Table()

	assert.Equal(t, []string{"TAG", "MESSAGE", "ASSIGNMENTS", "OVERRIDES", "CREATED"}, tbl.Headers)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"one [latest]", "first release", "2", "1", "2 hours ago"}, tbl.Rows[0])

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatTable, entries))
	assert.Contains(t, buf.String(), "one [latest]")
	assert.Contains(t, buf.String(), "ASSIGNMENTS")
}

func TestEntryDetail(t *testing.T) {
	e := Entry{sampleEntries()[0]}
	rows := e.Table().Rows
	assert.Contains(t, rows, []string{"VALUES", "a.b=2, c=1"})
	assert.Contains(t, rows, []string{"OVERRIDDEN_KEYS", "a"})

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatJSON, e))
	assert.Contains(t, buf.String(), `"tag": "one"`)
}

func TestReleasesTable(t *testing.T) {
	tbl := Releases{
		{Name: "web", Backend: "ConfigMap", Namespace: "apps", Resource: "kerbi-web-db", States: 3, Latest: "v2"},
		{Name: "bad", Backend: "Secret", Namespace: "apps", Resource: "kerbi-bad-db", Err: assert.AnError},
	}.Table()

	assert.Equal(t, []string{"web", "ConfigMap", "apps", "kerbi-web-db", "3", "v2"}, tbl.Rows[0])
	assert.Equal(t, "?", tbl.Rows[1][4])
}

func TestPrintPlainValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatTable, map[string]any{"x": 1}))
	assert.Equal(t, "x: 1\n", buf.String())
}

var _ View = Releases{}
