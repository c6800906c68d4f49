package helm

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/kerbi/internal/errkind"
)

const fakeOutput = `---
# Source: demo/templates/cm.yaml
apiVersion: v1
kind: ConfigMap
metadata:
  name: demo-cm
data:
  port: "80"
--- # Source: demo/templates/svc.yaml
apiVersion: v1
kind: Service
metadata:
  name: demo-svc
---
# Source: demo/templates/empty.yaml
`

// fakeHelm writes an executable script that records its arguments and the
// values file it was given, then prints output or fails.
func fakeHelm(t *testing.T, output string, exitCode int) (path, argsFile, valuesCopy string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake helm script requires a POSIX shell")
	}

	dir := t.TempDir()
	path = filepath.Join(dir, "helm")
	argsFile = filepath.Join(dir, "args")
	valuesCopy = filepath.Join(dir, "values-copy")
	outFile := filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(outFile, []byte(output), 0644))

	script := `#!/bin/sh
echo "$@" > "` + argsFile + `"
prev=""
for arg in "$@"; do
  if [ "$prev" = "-f" ]; then cp "$arg" "` + valuesCopy + `"; fi
  prev="$arg"
done
if [ ` + strconv.Itoa(exitCode) + ` -ne 0 ]; then
  echo "Error: chart not found" >&2
  exit ` + strconv.Itoa(exitCode) + `
fi
cat "` + outFile + `"
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path, argsFile, valuesCopy
}

func TestRender(t *testing.T) {
	path, argsFile, valuesCopy := fakeHelm(t, fakeOutput, 0)
	tmp := t.TempDir()
	b := New(WithPath(path), WithTempDir(tmp))
	require.True(t, b.CanExec())

	objects, err := b.Render(context.Background(), "demo", "bitnami/nginx", Options{
		Values:    map[string]any{"replicaCount": 2},
		Args:      `--version 1.2.3 --set-string "name=a b"`,
		Repo:      "https://charts.example.com",
		Namespace: "web",
	})
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "ConfigMap", objects[0]["kind"])
	assert.Equal(t, "demo-svc", objects[1]["metadata"].(map[string]any)["name"])

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(args), "template demo bitnami/nginx -f ")
	assert.Contains(t, string(args), "--repo https://charts.example.com --namespace web --version 1.2.3 --set-string name=a b")

	values, err := os.ReadFile(valuesCopy)
	require.NoError(t, err)
	assert.Equal(t, "replicaCount: 2\n", string(values))

	leftovers, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, leftovers, "values file should be removed")
}

func TestRenderFailure(t *testing.T) {
	path, _, _ := fakeHelm(t, "", 1)
	b := New(WithPath(path), WithTempDir(t.TempDir()))

	_, err := b.Render(context.Background(), "demo", "missing", Options{})
	require.ErrorIs(t, err, ErrRender)
	assert.Contains(t, err.Error(), "chart not found")
	assert.True(t, errkind.Is(err, errkind.Collaborator))
}

func TestRenderMissingBinary(t *testing.T) {
	b := New(WithPath(filepath.Join(t.TempDir(), "no-helm-here")))
	assert.False(t, b.CanExec())

	_, err := b.Render(context.Background(), "demo", "chart", Options{})
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestRenderBadArgs(t *testing.T) {
	path, _, _ := fakeHelm(t, fakeOutput, 0)
	b := New(WithPath(path), WithTempDir(t.TempDir()))

	_, err := b.Render(context.Background(), "demo", "chart", Options{Args: `--set "unterminated`})
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestTemplateArgsSortsSetFlags(t *testing.T) {
	args, err := templateArgs("demo", "chart", "/tmp/v.yaml", Options{
		Set:  map[string]string{"b": "2", "a": "1"},
		Args: "--debug",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"template", "demo", "chart", "-f", "/tmp/v.yaml",
		"--set", "a=1", "--set", "b=2", "--debug",
	}, args)
}

func TestParseManifests(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kinds   []string
		wantErr bool
	}{
		{name: "empty", input: "", kinds: nil},
		{name: "single", input: "kind: Pod\nmetadata:\n  name: a\n", kinds: []string{"Pod"}},
		{name: "null docs skipped", input: "---\nnull\n---\nkind: A\n---\n", kinds: []string{"A"}},
		{name: "crlf", input: "kind: A\r\n---\r\nkind: B\r\n", kinds: []string{"A", "B"}},
		{name: "invalid", input: "kind: [unclosed\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects, err := ParseManifests([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOutput)
				return
			}
			require.NoError(t, err)
			var kinds []string
			for _, o := range objects {
				kinds = append(kinds, o["kind"].(string))
			}
			assert.Equal(t, tt.kinds, kinds)
		})
	}
}
