package project

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/kerbi/internal/errkind"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		want   Source
		remote bool
	}{
		{"", Source{URI: "."}, false},
		{"./charts/web", Source{URI: "./charts/web"}, false},
		{"dir#with-hash", Source{URI: "dir#with-hash"}, false},
		{"https://github.com/org/repo.git", Source{URI: "https://github.com/org/repo.git"}, true},
		{"https://github.com/org/repo.git#v1.2.0", Source{URI: "https://github.com/org/repo.git", Ref: "v1.2.0"}, true},
		{"git@github.com:org/repo.git#main", Source{URI: "git@github.com:org/repo.git", Ref: "main"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Parse(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.remote, got.Remote())
		})
	}
}

func TestResolveLocal(t *testing.T) {
	dir := t.TempDir()
	r := &Resolver{}

	root, cleanup, err := r.Resolve(context.Background(), dir)
	require.NoError(t, err)
	cleanup()
	assert.Equal(t, dir, root)
	assert.DirExists(t, dir, "cleanup must not touch local projects")

	_, cleanup, err = r.Resolve(context.Background(), filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, errkind.Resolution, errkind.Of(err))
	assert.NotNil(t, cleanup)
}

// initRepo creates a repository with one commit holding values.yaml on
// branch main.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("local clones need the git binary for upload-pack")
	}

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "values.yaml"), []byte("a: 1\n"), 0644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("values.yaml")
	require.NoError(t, err)
	_, err = wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestResolveClone(t *testing.T) {
	src := initRepo(t)
	r := &Resolver{TempDir: t.TempDir()}

	root, cleanup, err := r.Resolve(context.Background(), "file://"+src)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "values.yaml"))

	cleanup()
	assert.NoDirExists(t, root)
}

func TestResolveCloneBadRef(t *testing.T) {
	src := initRepo(t)
	tmp := t.TempDir()
	r := &Resolver{TempDir: tmp}

	_, _, err := r.Resolve(context.Background(), "file://"+src+"#no-such-ref")
	require.ErrorIs(t, err, ErrClone)
	assert.Equal(t, errkind.Collaborator, errkind.Of(err))

	leftovers, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
