package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/kerbi/internal/ui"
	"github.com/cameronsjo/kerbi/internal/update"
)

const changelogLines = 10

func (a *app) updateCmd() *cobra.Command {
	var checkOnly bool
	cmd := &cobra.Command{
		Use:     "update",
		Aliases: []string{"upgrade", "selfupdate"},
		Short:   "Update kerbi to the latest version",
		Long: `Update kerbi to the latest version from GitHub releases.

Examples:
  kerbi update           # Update to latest version
  kerbi update --check   # Check for updates without installing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			p := ui.New(w)
			p.Info("Current version: %s (%s)", version, update.GetPlatformInfo())
			p.Info("Checking for updates...")

			if checkOnly {
				release, available, err := update.CheckForUpdate(cmd.Context(), version)
				if err != nil {
					return fmt.Errorf("check for updates: %w", err)
				}
				if !available {
					p.Success("You're running the latest version!")
					return nil
				}
				p.Success("New version available: %s (released %s)", release.Version, release.PublishedAt)
				p.Info("To update, run: kerbi update")
				printChangelog(w, release.Changelog)
				return nil
			}

			release, err := update.Update(cmd.Context(), version)
			if err != nil {
				return fmt.Errorf("update failed: %w", err)
			}
			if release == nil {
				p.Success("You're already running the latest version!")
				return nil
			}
			p.Success("Successfully updated to version %s!", release.Version)
			printChangelog(w, release.Changelog)
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only check for updates, don't install")
	return cmd
}

// printChangelog prints the first lines of release notes.
func printChangelog(w io.Writer, changelog string) {
	if changelog == "" {
		return
	}
	fmt.Fprintln(w)
	ui.Yellow.Fprintln(w, "What's new:")
	lines := strings.Split(changelog, "\n")
	for _, line := range lines[:min(len(lines), changelogLines)] {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if len(lines) > changelogLines {
		fmt.Fprintf(w, "  ... (%d more lines)\n", len(lines)-changelogLines)
	}
}
