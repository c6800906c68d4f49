package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/kerbi/internal/config"
	"github.com/cameronsjo/kerbi/internal/output"
	"github.com/cameronsjo/kerbi/internal/ui"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage default flag values in the config file",
		Long: `Manage default flag values stored in ~/.kerbi/config.yaml.

Flags given on the command line always win over the file. Legal keys:
` + fmt.Sprint(config.LegalKeys),
	}

	completeKeys := func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return config.LegalKeys, cobra.ShellCompDirectiveNoFileComp
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "location",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.cfg.Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective value of every key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				format, err := a.format(output.FormatYAML)
				if err != nil {
					return err
				}
				return output.Print(cmd.OutOrStdout(), format, a.settings(cmd))
			},
		},
		&cobra.Command{
			Use:               "get <key>",
			Short:             "Print the effective value of one key",
			Args:              cobra.ExactArgs(1),
			ValidArgsFunction: completeKeys,
			RunE: func(cmd *cobra.Command, args []string) error {
				if !config.IsLegal(args[0]) {
					return fmt.Errorf("%w: %q", config.ErrIllegalKey, args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), a.settings(cmd)[args[0]])
				return nil
			},
		},
		&cobra.Command{
			Use:               "set <key> <value>",
			Short:             "Store a default value",
			Args:              cobra.ExactArgs(2),
			ValidArgsFunction: completeKeys,
			RunE: func(cmd *cobra.Command, args []string) error {
				key, value := args[0], args[1]
				old := a.settings(cmd)[key]
				if _, err := a.cfg.Set(key, value); err != nil {
					return err
				}
				ui.Green.Fprintf(cmd.OutOrStdout(), "Updated config[%s] from %s => %s\n", key, old, value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Remove every stored value",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.cfg.Reset(); err != nil {
					return err
				}
				p := printer(cmd)
				p.Success("Config reset")
				p.Info("See %s", a.cfg.Path())
				return nil
			},
		},
	)
	return cmd
}

// settings returns the effective value of every legal key, as the flags
// see it after the config file is applied.
func (a *app) settings(cmd *cobra.Command) map[string]string {
	out := make(map[string]string, len(config.LegalKeys))
	for _, key := range config.LegalKeys {
		if f := cmd.Flags().Lookup(key); f != nil {
			out[key] = f.Value.String()
		}
	}
	return out
}
