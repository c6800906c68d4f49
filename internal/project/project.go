// Package project locates the directory a release is rendered from: a local
// path or a git repository cloned into a temporary directory.
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/cameronsjo/kerbi/internal/errkind"
)

var (
	// ErrNotFound is returned when a local project path does not exist.
	ErrNotFound = errkind.New(errkind.Resolution, "project not found")

	// ErrClone is returned when a remote project cannot be fetched.
	ErrClone = errkind.New(errkind.Collaborator, "project clone failed")
)

var remotePrefixes = []string{"https://", "http://", "ssh://", "git@", "file://"}

// Source is a parsed project URI.
type Source struct {
	// URI is a local path or a git URL.
	URI string

	// Ref is a branch or tag, given after '#'.
	Ref string
}

// Parse splits uri into location and ref. An empty uri means the working
// directory.
func Parse(uri string) Source {
	if uri == "" {
		return Source{URI: "."}
	}
	if !isRemote(uri) {
		return Source{URI: uri}
	}
	location, ref, _ := strings.Cut(uri, "#")
	return Source{URI: location, Ref: ref}
}

// Remote reports whether the source must be cloned.
func (s Source) Remote() bool {
	return isRemote(s.URI)
}

func isRemote(uri string) bool {
	for _, p := range remotePrefixes {
		if strings.HasPrefix(uri, p) {
			return true
		}
	}
	return false
}

// Resolver turns project URIs into local directories.
type Resolver struct {
	// TempDir is where clones go. Defaults to os.TempDir().
	TempDir string

	Logger *slog.Logger
}

// Resolve returns a local directory for uri and a cleanup func that removes
// any clone. Cleanup is never nil.
func (r *Resolver) Resolve(ctx context.Context, uri string) (string, func(), error) {
	noop := func() {}
	src := Parse(uri)

	if !src.Remote() {
		root, err := filepath.Abs(src.URI)
		if err != nil {
			return "", noop, fmt.Errorf("%w: %s: %v", ErrNotFound, src.URI, err)
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			return "", noop, fmt.Errorf("%w: %s", ErrNotFound, src.URI)
		}
		return root, noop, nil
	}

	dir, err := os.MkdirTemp(r.TempDir, "kerbi-project-*")
	if err != nil {
		return "", noop, fmt.Errorf("%w: %v", ErrClone, err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	if err := r.clone(ctx, src, dir); err != nil {
		cleanup()
		return "", noop, err
	}
	return dir, cleanup, nil
}

// clone fetches a shallow single-branch copy. A ref is tried as a branch
// first and then as a tag.
func (r *Resolver) clone(ctx context.Context, src Source, dir string) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "cloning project", slog.String("url", src.URI), slog.String("ref", src.Ref))

	refs := []plumbing.ReferenceName{""}
	if src.Ref != "" {
		refs = []plumbing.ReferenceName{
			plumbing.NewBranchReferenceName(src.Ref),
			plumbing.NewTagReferenceName(src.Ref),
		}
	}

	var errs []error
	for _, ref := range refs {
		_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:           src.URI,
			ReferenceName: ref,
			SingleBranch:  true,
			Depth:         1,
		})
		if err == nil {
			return nil
		}
		errs = append(errs, err)
		if err := resetDir(dir); err != nil {
			return fmt.Errorf("%w: %v", ErrClone, err)
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrClone, src.URI, errors.Join(errs...))
}

func resetDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
