package values

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestResolveFileOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "values", "prod.yaml"), "a: 1\n")
	assert.Equal(t, filepath.Join(root, "values", "prod.yaml"), ResolveFile(root, "prod"))

	writeFile(t, filepath.Join(root, "prod.json"), `{"a": 2}`)
	assert.Equal(t, filepath.Join(root, "prod.json"), ResolveFile(root, "prod"))

	writeFile(t, filepath.Join(root, "prod.yaml"), "a: 3\n")
	assert.Equal(t, filepath.Join(root, "prod.yaml"), ResolveFile(root, "prod"))

	assert.Empty(t, ResolveFile(root, "missing"))
}

func TestResolveFilesDefaultIsOptional(t *testing.T) {
	root := t.TempDir()

	paths, err := ResolveFiles(root, []string{DefaultFile})
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, err = ResolveFiles(root, []string{"prod"})
	assert.ErrorIs(t, err, ErrValuesFileNotFound)
}

func TestResolveFilesDeduplicates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "values.yaml"), "a: 1\n")

	paths, err := ResolveFiles(root, []string{"values", "values.yaml", "values"})
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestLoadFileFormats(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.json"), `{"svc": {"port": 80}}`)
	writeFile(t, filepath.Join(root, "b.yaml.tmpl"), "svc:\n  name: {{ \"web\" | upper }}\n")
	writeFile(t, filepath.Join(root, "empty.yaml"), "")
	writeFile(t, filepath.Join(root, "list.yaml"), "- a\n- b\n")

	got, err := LoadFile(filepath.Join(root, "a.json"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"svc": map[string]any{"port": float64(80)}}, got)

	got, err = LoadFile(filepath.Join(root, "b.yaml.tmpl"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"svc": map[string]any{"name": "WEB"}}, got)

	got, err = LoadFile(filepath.Join(root, "empty.yaml"))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = LoadFile(filepath.Join(root, "list.yaml"))
	assert.ErrorIs(t, err, ErrNotMapping)
}

func TestCompilerPrecedence(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "values.yaml"), "image: nginx\nreplicas: 1\ntier: base\nowner: file\n")
	writeFile(t, filepath.Join(root, "values", "prod.yaml"), "replicas: 3\ntier: prod\n")

	c := &Compiler{
		Root:   root,
		Files:  []string{"prod"},
		Inline: []string{"tier=inline", "owner=inline"},
		State:  map[string]any{"owner": "state"},
	}

	result, err := c.Compile()
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"image":    "nginx",
		"replicas": 3,
		"tier":     "inline",
		"owner":    "state",
	}, result.Values)
	assert.Equal(t, map[string]any{
		"image":    "nginx",
		"replicas": 1,
		"tier":     "base",
		"owner":    "file",
	}, result.Defaults)
}

func TestCompilerSkipDefaults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "values.yaml"), "a: 1\n")

	c := &Compiler{Root: root, SkipDefaults: true, Inline: []string{"b=2"}}
	result, err := c.Compile()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": "2"}, result.Values)
	assert.Empty(t, result.Defaults)
}

func TestCompilerMissingExplicitFile(t *testing.T) {
	c := &Compiler{Root: t.TempDir(), Files: []string{"nope"}}
	_, err := c.Compile()
	assert.ErrorIs(t, err, ErrValuesFileNotFound)
}
