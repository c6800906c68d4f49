// Package cmd provides the CLI commands for kerbi.
package cmd

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/kerbi/internal/config"
	"github.com/cameronsjo/kerbi/internal/errkind"
	"github.com/cameronsjo/kerbi/internal/helm"
	"github.com/cameronsjo/kerbi/internal/kube"
	"github.com/cameronsjo/kerbi/internal/log"
	"github.com/cameronsjo/kerbi/internal/mixer"
	"github.com/cameronsjo/kerbi/internal/output"
	"github.com/cameronsjo/kerbi/internal/state"
	"github.com/cameronsjo/kerbi/internal/ui"
)

const version = "0.3.0"

const rootLong = `kerbi - Kubernetes manifest templating with tracked values

Mixers turn a values mapping into manifests. Every render can be recorded as
a tagged state entry in a ConfigMap or Secret, so later renders can reuse
the exact values that produced a release.

TEMPLATING
  template <release> [project]  Render manifests for a release
    --values-file, -f <name>    Load a values file (repeatable)
    --set key.path=value        Inline assignment (repeatable)
    --read-state <tag>          Merge values from a state entry
    --write-state <tag>         Record compiled values as a state entry
  values show                   Print compiled values

STATE
  state list                    List recorded entries
  state show <tag>              Show one entry
  state promote|demote <tag>    Move an entry in or out of candidacy
  state retag <tag> <new-tag>   Rename an entry
  state set <tag> <attr> <val>  Assign message or created_at
  state delete <tag>            Remove an entry
  state prune-candidates        Remove every candidate

RELEASES
  release init <release>        Create the state resource
  release status <release>      Test the state backend
  release list                  List releases in the cluster

SETUP
  config show|get|set|reset     Manage ~/.kerbi/config.yaml
  project new <name>            Scaffold a project
  doctor                        Check for helm and friends

Tag expressions: @latest and @candidate read; @new-candidate, @candidate
and @random write.`

// Connector opens the state store for a cluster.
type Connector func(auth kube.Auth, kind string) (kube.Store, error)

// Connect is the Connector used outside tests.
func Connect(auth kube.Auth, kind string) (kube.Store, error) {
	client, err := kube.NewClient(auth)
	if err != nil {
		return nil, err
	}
	return kube.NewStore(kind, client)
}

// Option configures the root command.
type Option func(*app)

// WithUnits makes registered mixers read units from fsys instead of the
// project directory.
func WithUnits(fsys fs.FS) Option {
	return func(a *app) {
		a.units = fsys
	}
}

// WithConnector replaces how the state store is reached.
func WithConnector(c Connector) Option {
	return func(a *app) {
		a.connect = c
	}
}

// WithRenderer sets the chart renderer handed to mixers.
func WithRenderer(r helm.Renderer) Option {
	return func(a *app) {
		a.renderer = r
	}
}

// WithInput sets where confirmation prompts read from.
func WithInput(r io.Reader) Option {
	return func(a *app) {
		a.in = r
	}
}

// WithTagGenerator replaces the random word source for new tags.
func WithTagGenerator(fn func() string) Option {
	return func(a *app) {
		a.setOpts = append(a.setOpts, state.WithTagGenerator(fn))
	}
}

// runOptions holds the global flags after config file values are applied.
type runOptions struct {
	namespace         string
	stateBackend      string
	authType          string
	kubeConfigPath    string
	kubeConfigContext string
	username          string
	password          string
	token             string
	output            string
	logLevel          string
	logFormat         string
	configFile        string
}

type app struct {
	reg      *mixer.Registry
	units    fs.FS
	renderer helm.Renderer
	connect  Connector
	in       io.Reader
	setOpts  []state.Option

	opts     runOptions
	explicit map[string]bool
	cfg      *config.File
	logger   *slog.Logger
}

// NewRootCmd builds the command tree around reg. Commands read reg but never
// modify it; callers that reuse a registry across invocations reset it
// between them.
func NewRootCmd(reg *mixer.Registry, opts ...Option) *cobra.Command {
	if reg == nil {
		reg = mixer.NewRegistry()
	}
	a := &app{
		reg:      reg,
		connect:  Connect,
		in:       os.Stdin,
		explicit: map[string]bool{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:               "kerbi",
		Short:             "Kubernetes manifest templating with tracked values",
		Long:              rootLong,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.prepare,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetVersionTemplate("kerbi version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.namespace, config.KeyNamespace, config.Defaults[config.KeyNamespace], "Namespace holding the state resource")
	flags.StringVar(&a.opts.stateBackend, config.KeyStateBackend, config.Defaults[config.KeyStateBackend], "State store kind (configmap, secret)")
	flags.StringVar(&a.opts.authType, config.KeyAuthType, config.Defaults[config.KeyAuthType], "Cluster auth (kube-config, in-cluster, basic, token)")
	flags.StringVar(&a.opts.kubeConfigPath, config.KeyKubeConfigPath, "", "Path to kubeconfig, defaults to ~/.kube/config")
	flags.StringVar(&a.opts.kubeConfigContext, config.KeyKubeConfigContext, "", "Kubeconfig context, defaults to the current one")
	flags.StringVar(&a.opts.username, config.KeyUsername, "", "Username for basic auth")
	flags.StringVar(&a.opts.password, config.KeyPassword, "", "Password for basic auth")
	flags.StringVar(&a.opts.token, config.KeyToken, "", "Bearer token for token auth")
	flags.StringVarP(&a.opts.output, config.KeyOutput, "o", config.Defaults[config.KeyOutput], "Output format ("+strings.Join(output.AllFormats, ", ")+")")
	flags.StringVar(&a.opts.logLevel, config.KeyLogLevel, config.Defaults[config.KeyLogLevel], "Log level ("+strings.Join(log.AllLevels, ", ")+")")
	flags.StringVar(&a.opts.logFormat, config.KeyLogFormat, config.Defaults[config.KeyLogFormat], "Log format ("+strings.Join(log.AllFormats, ", ")+")")
	flags.StringVar(&a.opts.configFile, "config-file", "", "Config file, defaults to ~/.kerbi/config.yaml")

	root.RegisterFlagCompletionFunc(config.KeyOutput, fixedCompletions(output.AllFormats))
	root.RegisterFlagCompletionFunc(config.KeyStateBackend, fixedCompletions([]string{kube.KindConfigMap, kube.KindSecret}))
	root.RegisterFlagCompletionFunc(config.KeyLogLevel, fixedCompletions(log.AllLevels))
	root.RegisterFlagCompletionFunc(config.KeyLogFormat, fixedCompletions(log.AllFormats))

	root.AddCommand(
		a.templateCmd(),
		a.valuesCmd(),
		a.stateCmd(),
		a.releaseCmd(),
		a.configCmd(),
		a.projectCmd(),
		a.doctorCmd(),
		a.versionCmd(),
		a.updateCmd(),
	)
	return root
}

// prepare layers the config file under the flags and sets up logging.
func (a *app) prepare(cmd *cobra.Command, _ []string) error {
	file, err := config.Open(a.opts.configFile)
	if err != nil {
		return err
	}
	a.cfg = file

	stored, err := file.Read()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	for _, key := range config.LegalKeys {
		f := flags.Lookup(key)
		if f == nil {
			continue
		}
		if f.Changed {
			a.explicit[key] = true
			continue
		}
		if v, ok := stored[key]; ok {
			if err := f.Value.Set(v); err != nil {
				return fmt.Errorf("config %s: %w", key, err)
			}
			a.explicit[key] = true
		}
	}

	logger, err := log.Setup(cmd.ErrOrStderr(), a.opts.logLevel, a.opts.logFormat)
	if err != nil {
		return err
	}
	a.logger = logger

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(log.NewContext(ctx, logger))
	return nil
}

// Execute runs the CLI against reg. It exits 2 when the user can fix the
// failure by changing input and 1 for every other failure.
func Execute(reg *mixer.Registry, opts ...Option) {
	root := NewRootCmd(reg, opts...)
	if err := root.Execute(); err != nil {
		printError(ui.New(root.ErrOrStderr()), err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errkind.Recoverable(err) {
		return 2
	}
	return 1
}
