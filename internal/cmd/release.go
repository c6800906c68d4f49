package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/kerbi/internal/backend"
	"github.com/cameronsjo/kerbi/internal/output"
)

func (a *app) releaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Manage the state resources of releases",
	}

	var allNamespaces bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List releases with recorded state",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := a.format(output.FormatTable)
			if err != nil {
				return err
			}
			store, err := a.dial()
			if err != nil {
				return err
			}
			namespace := a.opts.namespace
			if allNamespaces {
				namespace = ""
			}
			releases, err := backend.Releases(cmd.Context(), store, namespace)
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), format, output.Releases(releases))
		},
	}
	list.Flags().BoolVarP(&allNamespaces, "all-namespaces", "A", false, "Search every namespace")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init <release>",
			Short: "Create the namespace and state resource for a release",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.initBackend(cmd, a.backend(args[0]))
			},
		},
		&cobra.Command{
			Use:               "status <release>",
			Short:             "Test every step of reaching a release's state",
			Args:              cobra.ExactArgs(1),
			ValidArgsFunction: a.completeReleases,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.printStatus(cmd, a.backend(args[0]))
			},
		},
		list,
		a.releaseDeleteCmd(),
	)
	return cmd
}

func (a *app) releaseDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:               "delete <release>",
		Short:             "Delete a release's state resource and every entry in it",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeReleases,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := a.backend(args[0])
			if !yes {
				prompt := fmt.Sprintf("Delete %s/%s and all of its state?", b.Namespace(), b.ResourceName())
				if err := a.confirm(cmd, prompt); err != nil {
					return err
				}
			}
			if err := b.Delete(cmd.Context()); err != nil {
				return err
			}
			printer(cmd).Success("Deleted %s/%s", b.Namespace(), b.ResourceName())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
