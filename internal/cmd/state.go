package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/kerbi/internal/backend"
	"github.com/cameronsjo/kerbi/internal/config"
	"github.com/cameronsjo/kerbi/internal/mixer"
	"github.com/cameronsjo/kerbi/internal/output"
	"github.com/cameronsjo/kerbi/internal/state"
)

// stateCmd groups the entry lifecycle commands. Every subcommand works on
// the release named by --release.
func (a *app) stateCmd() *cobra.Command {
	var release string

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and edit recorded state entries",
		Long: `Inspect and edit the entries recorded for a release.

Tags may be literal (1.4.2, [cand]-wise-otter) or use @latest for the
newest committed entry and @candidate for the newest candidate.`,
	}
	cmd.PersistentFlags().StringVar(&release, "release", mixer.DefaultRelease, "Release whose state to use")
	cmd.RegisterFlagCompletionFunc("release", a.completeReleaseFlag)

	be := func() *backend.Backend { return a.backend(release) }

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init <namespace>",
			Short: "Create the state resource in a namespace and make it the default",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a.opts.namespace = args[0]
				return a.initBackend(cmd, be())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Test every step of reaching the state resource",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.printStatus(cmd, be())
			},
		},
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List entries, newest first",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				format, err := a.format(output.FormatTable)
				if err != nil {
					return err
				}
				set, err := be().Load(cmd.Context())
				if err != nil {
					return err
				}
				return output.Print(cmd.OutOrStdout(), format, output.Entries(set.Entries()))
			},
		},
		&cobra.Command{
			Use:               "show <tag>",
			Short:             "Show one entry",
			Args:              cobra.ExactArgs(1),
			ValidArgsFunction: a.completeTags,
			RunE: func(cmd *cobra.Command, args []string) error {
				format, err := a.format(output.FormatTable)
				if err != nil {
					return err
				}
				_, entry, err := a.findEntry(cmd.Context(), be(), args[0])
				if err != nil {
					return err
				}
				return output.Print(cmd.OutOrStdout(), format, output.Entry{Entry: entry})
			},
		},
		&cobra.Command{
			Use:               "retag <tag> <new-tag>",
			Short:             "Give an entry a new tag",
			Args:              cobra.ExactArgs(2),
			ValidArgsFunction: a.completeTags,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.editEntry(cmd, be(), args[0], "tag", func(e *state.Entry) (string, error) {
					return e.Retag(args[1])
				})
			},
		},
		&cobra.Command{
			Use:               "promote <tag>",
			Short:             "Turn a candidate into a committed entry",
			Args:              cobra.ExactArgs(1),
			ValidArgsFunction: a.completeTags,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.editEntry(cmd, be(), args[0], "tag", (*state.Entry).Promote)
			},
		},
		&cobra.Command{
			Use:               "demote <tag>",
			Short:             "Turn a committed entry back into a candidate",
			Args:              cobra.ExactArgs(1),
			ValidArgsFunction: a.completeTags,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.editEntry(cmd, be(), args[0], "tag", (*state.Entry).Demote)
			},
		},
		&cobra.Command{
			Use:               "set <tag> <attribute> <value>",
			Short:             "Assign an entry's message or created_at",
			Args:              cobra.ExactArgs(3),
			ValidArgsFunction: a.completeTags,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.editEntry(cmd, be(), args[0], args[1], func(e *state.Entry) (string, error) {
					return e.Set(args[1], args[2])
				})
			},
		},
		a.stateDeleteCmd(be),
		&cobra.Command{
			Use:   "prune-candidates",
			Short: "Delete every candidate entry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				b := be()
				set, err := b.Load(cmd.Context())
				if err != nil {
					return err
				}
				pruned := set.PruneCandidates()
				if err := b.Save(cmd.Context()); err != nil {
					return err
				}
				printer(cmd).Success("Pruned %d state entries", pruned)
				return nil
			},
		},
	)
	return cmd
}

func (a *app) stateDeleteCmd(be func() *backend.Backend) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:               "delete <tag>",
		Aliases:           []string{"rm"},
		Short:             "Delete an entry",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeTags,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b := be()
			_, entry, err := a.findEntry(ctx, b, args[0])
			if err != nil {
				return err
			}
			if !yes {
				if err := a.confirm(cmd, fmt.Sprintf("Delete state[%s]?", entry.Tag())); err != nil {
					return err
				}
			}

			tag := entry.Tag()
			if err := b.DeleteEntry(ctx, entry); err != nil {
				return err
			}

			remaining, err := b.Load(ctx)
			if err != nil {
				return err
			}
			printer(cmd).Success("Deleted state[%s]. Remaining entries: %d", tag, remaining.Len())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func (a *app) findEntry(ctx context.Context, b *backend.Backend, expr string) (*state.EntrySet, *state.Entry, error) {
	set, err := b.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	entry, err := set.FindForRead(expr)
	if err != nil {
		return nil, nil, err
	}
	return set, entry, nil
}

// editEntry applies change to the entry expr resolves to, stamps it, saves
// and reports the change. An explicit created_at assignment is not
// overwritten by the stamp.
func (a *app) editEntry(cmd *cobra.Command, b *backend.Backend, expr, attr string, change func(*state.Entry) (string, error)) error {
	ctx := cmd.Context()
	_, entry, err := a.findEntry(ctx, b, expr)
	if err != nil {
		return err
	}

	old, err := change(entry)
	if err != nil {
		return err
	}
	if attr != state.AttrCreatedAt {
		entry.Touch(time.Now())
	}
	updated := entry.Get(attr)
	tag := entry.Tag()
	if attr == "tag" {
		tag = old
	}

	if err := b.Save(ctx); err != nil {
		return err
	}
	printer(cmd).Change(tag, attr, old, updated)
	return nil
}

// initBackend provisions the namespace and resource and records the
// namespace as the default.
func (a *app) initBackend(cmd *cobra.Command, b *backend.Backend) error {
	p := printer(cmd)
	report, err := b.ProvisionMissingResources(cmd.Context())
	if err != nil {
		return err
	}

	if report.NamespaceCreated {
		p.Success("Created namespace %s", b.Namespace())
	} else {
		p.Info("Namespace %s already exists", b.Namespace())
	}
	if report.ResourceCreated {
		p.Success("Created %s %s/%s", b.Kind(), b.Namespace(), b.ResourceName())
	} else {
		p.Info("%s %s/%s already exists", b.Kind(), b.Namespace(), b.ResourceName())
	}

	if _, err := a.cfg.Set(config.KeyNamespace, b.Namespace()); err != nil {
		return err
	}
	p.Info("Default namespace is now %s (%s)", b.Namespace(), a.cfg.Path())
	return nil
}

// printStatus runs the connection test and fails if any step failed.
func (a *app) printStatus(cmd *cobra.Command, b *backend.Backend) error {
	p := printer(cmd)
	p.Header("State backend for release %s", b.Release())
	report := b.TestConnection(cmd.Context())
	for _, check := range report.Checks {
		p.Check(check.Name, check.Err)
	}
	return report.Err()
}
