package cmd

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/kerbi/internal/backend"
	"github.com/cameronsjo/kerbi/internal/mixer"
	"github.com/cameronsjo/kerbi/internal/state"
)

// Completion timeout to avoid hanging shell.
const completionTimeout = 2 * time.Second

// tagMarkers are offered alongside literal tags.
var tagMarkers = []string{
	state.Marker + state.WordLatest,
	state.Marker + state.WordCandidate,
}

func fixedCompletions(choices []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return withPrefix(choices, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

// completeReleaseFlag completes --release regardless of positional args.
func (a *app) completeReleaseFlag(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return a.completeReleases(cmd, nil, toComplete)
}

// completeReleases completes release names found in the cluster.
func (a *app) completeReleases(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()

	store, err := a.dial()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	releases, err := backend.Releases(ctx, store, a.opts.namespace)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	names := make([]string, 0, len(releases))
	for _, r := range releases {
		names = append(names, r.Name)
	}
	return withPrefix(names, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeTags completes the first argument with the release's tags.
func (a *app) completeTags(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	release := mixer.DefaultRelease
	if f := cmd.Flags().Lookup("release"); f != nil {
		release = f.Value.String()
	}
	return a.tagsOf(release, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeTagFlag completes a tag flag of a command whose first argument
// is the release.
func (a *app) completeTagFlag(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	release := mixer.DefaultRelease
	if len(args) > 0 {
		release = args[0]
	}
	return a.tagsOf(release, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (a *app) tagsOf(release, prefix string) []string {
	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()

	set, err := a.backend(release).Load(ctx)
	if err != nil {
		return withPrefix(tagMarkers, prefix)
	}
	return withPrefix(slices.Concat(tagMarkers, set.Tags()), prefix)
}

func withPrefix(choices []string, prefix string) []string {
	var out []string
	for _, c := range choices {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}
