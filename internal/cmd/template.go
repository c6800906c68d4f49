package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cameronsjo/kerbi/internal/backend"
	"github.com/cameronsjo/kerbi/internal/config"
	"github.com/cameronsjo/kerbi/internal/errkind"
	"github.com/cameronsjo/kerbi/internal/log"
	"github.com/cameronsjo/kerbi/internal/mixer"
	"github.com/cameronsjo/kerbi/internal/output"
	"github.com/cameronsjo/kerbi/internal/project"
	"github.com/cameronsjo/kerbi/internal/state"
	"github.com/cameronsjo/kerbi/internal/ui"
	"github.com/cameronsjo/kerbi/internal/values"
)

// ErrUnknownMixer is returned when --mixer names nothing registered.
var ErrUnknownMixer = errkind.New(errkind.Resolution, "unknown mixer")

// valueFlags are shared by every command that compiles values.
type valueFlags struct {
	files      []string
	inline     []string
	noDefaults bool
	readState  string
	strictRead bool
	writeState string
	message    string
}

func (v *valueFlags) register(flags *pflag.FlagSet) {
	flags.StringArrayVarP(&v.files, "values-file", "f", nil, "Values file to load, later files win (repeatable)")
	flags.StringArrayVar(&v.inline, "set", nil, "Inline assignment such as x.y=foo (repeatable)")
	flags.BoolVar(&v.noDefaults, "no-defaults", false, "Skip the implicit values file")
	flags.StringVar(&v.readState, "read-state", "", "Merge values from this state entry (e.g. @latest)")
	flags.BoolVar(&v.strictRead, "strict-read-state", false, "Fail when --read-state finds no entry")
	flags.StringVar(&v.writeState, "write-state", "", "Record compiled values under this tag (e.g. @new-candidate)")
	flags.StringVar(&v.message, "message", "", "Message stored with --write-state")
}

// compiled is the result of the values half of the pipeline.
type compiled struct {
	*values.Result
	backend *backend.Backend
}

// compile reads prior state if asked and merges every value source.
func (a *app) compile(ctx context.Context, release, root string, vf *valueFlags) (*compiled, error) {
	be := a.backend(release)

	prior, err := a.readStateValues(ctx, be, vf)
	if err != nil {
		return nil, err
	}

	c := &values.Compiler{
		Root:         root,
		Files:        vf.files,
		Inline:       vf.inline,
		SkipDefaults: vf.noDefaults,
		State:        prior,
	}
	res, err := c.Compile()
	if err != nil {
		return nil, err
	}
	return &compiled{Result: res, backend: be}, nil
}

// readStateValues returns the values of the --read-state entry. A missing
// entry reads as no values unless --strict-read-state is set.
func (a *app) readStateValues(ctx context.Context, be *backend.Backend, vf *valueFlags) (map[string]any, error) {
	if vf.readState == "" {
		return nil, nil
	}

	set, err := be.Load(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := set.FindForRead(vf.readState)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) && !vf.strictRead {
			log.WithContext(ctx).Warn("no state to read, continuing without it", "tag", vf.readState, "error", err)
			return nil, nil
		}
		return nil, err
	}

	log.WithContext(ctx).Debug("read state values", "tag", entry.Tag(), "keys", len(entry.Values))
	return values.CopyMap(entry.Values), nil
}

// persist records compiled values under --write-state.
func (a *app) persist(ctx context.Context, c *compiled, vf *valueFlags) (*state.Entry, error) {
	if vf.writeState == "" {
		return nil, nil
	}
	if err := c.backend.RequireReady(ctx); err != nil {
		return nil, err
	}

	set, err := c.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := set.FindOrInitForWrite(vf.writeState)
	if err != nil {
		return nil, err
	}

	entry.Values = values.CopyMap(c.Values)
	entry.DefaultValues = values.CopyMap(c.Defaults)
	entry.Revision = a.reg.Revision()
	if vf.message != "" {
		entry.Message = vf.message
	}
	entry.Touch(time.Now())

	if err := c.backend.Save(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

// projectRoot resolves the project argument to a local directory.
func (a *app) projectRoot(ctx context.Context, args []string) (string, func(), error) {
	if len(args) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return "", func() {}, err
		}
		root, err := config.FindRoot(wd)
		return root, func() {}, err
	}
	r := &project.Resolver{Logger: a.logger}
	return r.Resolve(ctx, args[0])
}

// mixers returns what template runs: the named mixers, every registered
// mixer, or a DirMixer over the project's units.
// mixers returns the registry to run: the named mixers, every registered
// mixer, or the project's units directory when nothing is registered.
func (a *app) mixers(names []string) (*mixer.Registry, error) {
	if len(names) == 0 && a.reg.Len() > 0 {
		return a.reg, nil
	}

	sel := mixer.NewRegistry()
	if len(names) == 0 {
		sel.MustRegister(project.UnitsDir, mixer.DirMixer{Path: project.UnitsDir})
		return sel, nil
	}
	for _, name := range names {
		m, ok := a.reg.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownMixer, name, a.reg.Names())
		}
		if _, dup := sel.Lookup(name); !dup {
			sel.MustRegister(name, m)
		}
	}
	return sel, nil
}

func (a *app) unitFS(root string) fs.FS {
	if a.units != nil {
		return a.units
	}
	return os.DirFS(root)
}

func (a *app) templateCmd() *cobra.Command {
	var (
		vf    valueFlags
		names []string
	)

	cmd := &cobra.Command{
		Use:   "template <release> [project]",
		Short: "Render manifests for a release",
		Long: `Compile values, run the mixers and print the manifests.

The project is a directory (default: the nearest parent holding a values
file) or a git URL with an optional #ref. Registered mixers run in order;
without any, every unit under units/ is rendered.

Examples:
  kerbi template web                          # render ./units with ./values.yaml
  kerbi template web -f production --set image.tag=1.2.3
  kerbi template web --read-state @latest --write-state @new-candidate
  kerbi template web https://github.com/acme/deploy.git#v2`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: a.completeReleases,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			release := args[0]

			format, err := a.format(output.FormatYAML)
			if err != nil {
				return err
			}

			root, cleanup, err := a.projectRoot(ctx, args[1:])
			defer cleanup()
			if err != nil {
				return err
			}

			c, err := a.compile(ctx, release, root, &vf)
			if err != nil {
				return err
			}

			sel, err := a.mixers(names)
			if err != nil {
				return err
			}

			runOpts := []mixer.RunOption{
				mixer.WithRelease(release),
				mixer.WithFS(a.unitFS(root)),
				mixer.WithLogger(a.logger),
			}
			if a.renderer != nil {
				runOpts = append(runOpts, mixer.WithChartRenderer(a.renderer))
			}

			frags, err := sel.RunAll(ctx, c.Values, runOpts...)
			if err != nil {
				return err
			}

			entry, err := a.persist(ctx, c, &vf)
			if err != nil {
				return err
			}
			if entry != nil {
				ui.New(cmd.ErrOrStderr()).Success("Recorded state[%s]", entry.Tag())
			}

			return output.Manifests(cmd.OutOrStdout(), format, mixer.Maps(frags))
		},
	}

	vf.register(cmd.Flags())
	cmd.Flags().StringArrayVar(&names, "mixer", nil, "Run only this registered mixer (repeatable)")
	cmd.RegisterFlagCompletionFunc("mixer", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return a.reg.Names(), cobra.ShellCompDirectiveNoFileComp
	})
	cmd.RegisterFlagCompletionFunc("read-state", a.completeTagFlag)
	return cmd
}

func (a *app) valuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "values",
		Short: "Inspect compiled values",
	}

	var (
		vf      valueFlags
		release string
	)
	show := &cobra.Command{
		Use:   "show [project]",
		Short: "Print compiled values",
		Long: `Compile values exactly as template would and print them.

--read-state and --write-state work as they do for template, so this is
also how to record values without rendering anything.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			format, err := a.format(output.FormatYAML)
			if err != nil {
				return err
			}

			root, cleanup, err := a.projectRoot(ctx, args)
			defer cleanup()
			if err != nil {
				return err
			}

			c, err := a.compile(ctx, release, root, &vf)
			if err != nil {
				return err
			}
			if _, err := a.persist(ctx, c, &vf); err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), format, c.Values)
		},
	}
	vf.register(show.Flags())
	show.Flags().StringVar(&release, "release", mixer.DefaultRelease, "Release whose state --read-state and --write-state use")

	cmd.AddCommand(show)
	return cmd
}
