// Package update provides self-update functionality for kerbi.
package update

import (
	"context"
	"fmt"
	"runtime"

	"github.com/creativeprojects/go-selfupdate"

	"github.com/cameronsjo/kerbi/internal/errkind"
)

// ErrUpdate wraps every failure to reach or apply a release.
var ErrUpdate = errkind.New(errkind.Collaborator, "self update failed")

const (
	// Repository owner and name for GitHub releases.
	repoOwner = "cameronsjo"
	repoName  = "kerbi"
)

// Release contains information about an available update.
type Release struct {
	Version     string
	ReleaseURL  string
	PublishedAt string
	Changelog   string
}

func detectLatest(ctx context.Context) (*selfupdate.Updater, *selfupdate.Release, bool, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: creating update source: %v", ErrUpdate, err)
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source: source,
	})
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: creating updater: %v", ErrUpdate, err)
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: detecting latest version: %v", ErrUpdate, err)
	}
	return updater, latest, found, nil
}

func toRelease(latest *selfupdate.Release) *Release {
	return &Release{
		Version:     latest.Version(),
		ReleaseURL:  latest.URL,
		PublishedAt: latest.PublishedAt.Format("2006-01-02"),
		Changelog:   latest.ReleaseNotes,
	}
}

// CheckForUpdate checks if a newer version is available.
func CheckForUpdate(ctx context.Context, currentVersion string) (*Release, bool, error) {
	_, latest, found, err := detectLatest(ctx)
	if err != nil || !found {
		return nil, false, err
	}

	if latest.LessOrEqual(currentVersion) {
		return nil, false, nil
	}
	return toRelease(latest), true, nil
}

// Update downloads and installs the latest version. It returns nil when
// already up to date.
func Update(ctx context.Context, currentVersion string) (*Release, error) {
	updater, latest, found, err := detectLatest(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: no releases found for %s/%s", ErrUpdate, repoOwner, repoName)
	}

	if latest.LessOrEqual(currentVersion) {
		return nil, nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return nil, fmt.Errorf("%w: getting executable path: %v", ErrUpdate, err)
	}

	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return nil, fmt.Errorf("%w: updating binary: %v", ErrUpdate, err)
	}

	return toRelease(latest), nil
}

// GetPlatformInfo returns the current platform information.
func GetPlatformInfo() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}
