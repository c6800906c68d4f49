package fileutil_test

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/kerbi/internal/fileutil"
)

func TestWriteFile(t *testing.T) {
	t.Parallel()

	t.Run("writes content", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, fileutil.WriteFile(path, []byte("namespace: web\n"), 0600))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "namespace: web\n", string(got))
	})

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "deep", "file")
		require.NoError(t, fileutil.WriteFile(path, []byte("x"), 0644))
		assert.FileExists(t, path)
	})

	t.Run("replaces existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
		require.NoError(t, fileutil.WriteFile(path, []byte("new"), 0644))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))
	})

	t.Run("sets permissions", func(t *testing.T) {
		t.Parallel()
		if runtime.GOOS == "windows" {
			t.Skip("permission bits are not portable")
		}

		path := filepath.Join(t.TempDir(), "secret")
		require.NoError(t, fileutil.WriteFile(path, []byte("x"), 0600))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("leaves no temp files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, fileutil.WriteFile(filepath.Join(dir, "file"), []byte("x"), 0644))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("rejects symlink destination", func(t *testing.T) {
		t.Parallel()
		if runtime.GOOS == "windows" {
			t.Skip("symlinks need privileges on windows")
		}

		dir := t.TempDir()
		target := filepath.Join(dir, "target")
		link := filepath.Join(dir, "link")
		require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
		require.NoError(t, os.Symlink(target, link))

		err := fileutil.WriteFile(link, []byte("y"), 0644)
		assert.ErrorIs(t, err, fileutil.ErrSymlinkNotSupported)
	})
}

func TestWriteFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"values.yaml":    {Data: []byte("a: 1\n")},
		"units/pod.yaml": {Data: []byte("kind: Pod\n")},
		"units/svc.yaml": {Data: []byte("kind: Service\n")},
	}

	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dst, "values.yaml"), []byte("keep: me\n"), 0644))

	written, err := fileutil.WriteFS(fsys, dst, false, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dst, "units", "pod.yaml"),
		filepath.Join(dst, "units", "svc.yaml"),
	}, written)

	kept, err := os.ReadFile(filepath.Join(dst, "values.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "keep: me\n", string(kept))

	upper := func(_ string, data []byte) []byte { return bytes.ToUpper(data) }
	written, err = fileutil.WriteFS(fsys, dst, true, upper)
	require.NoError(t, err)
	assert.Len(t, written, 3)

	got, err := os.ReadFile(filepath.Join(dst, "values.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "A: 1\n", string(got))
}
