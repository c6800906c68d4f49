package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/kerbi/internal/project"
)

func (a *app) projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create and inspect projects",
	}

	var dir string
	newCmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Scaffold a project with values.yaml and starter units",
		Long: `Scaffold a project directory named <name>.

The project renders with no code at all: values.yaml feeds every
*.yaml.tmpl under units/. Run it with:
  cd <name> && kerbi template <name>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent := dir
			if parent == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				parent = wd
			}

			written, err := project.Scaffold(parent, args[0])
			if err != nil {
				return err
			}

			p := printer(cmd)
			for _, path := range written {
				rel, err := filepath.Rel(parent, path)
				if err != nil {
					rel = path
				}
				p.Info("  create %s", rel)
			}
			p.Success("Created project %s", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "\nNext: cd %s && kerbi template %s\n", args[0], args[0])
			return nil
		},
	}
	newCmd.Flags().StringVar(&dir, "dir", "", "Parent directory, defaults to the working directory")

	cmd.AddCommand(newCmd)
	return cmd
}
