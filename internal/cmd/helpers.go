package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cameronsjo/kerbi/internal/backend"
	"github.com/cameronsjo/kerbi/internal/config"
	"github.com/cameronsjo/kerbi/internal/errkind"
	"github.com/cameronsjo/kerbi/internal/kube"
	"github.com/cameronsjo/kerbi/internal/output"
	"github.com/cameronsjo/kerbi/internal/ui"
)

// ErrAborted is returned when the user declines a confirmation.
var ErrAborted = errkind.New(errkind.Validation, "aborted")

// auth builds the connection bundle from the global flags.
func (a *app) auth() kube.Auth {
	return kube.Auth{
		Type:           kube.AuthType(a.opts.authType),
		KubeConfigPath: a.opts.kubeConfigPath,
		Context:        a.opts.kubeConfigContext,
		Username:       a.opts.username,
		Password:       a.opts.password,
		Token:          a.opts.token,
	}
}

// dial connects to the configured state store.
func (a *app) dial() (kube.Store, error) {
	return a.connect(a.auth(), a.opts.stateBackend)
}

// backend returns the state backend for release. Nothing connects until the
// backend is used.
func (a *app) backend(release string) *backend.Backend {
	return backend.Dial(a.dial, release, a.opts.namespace,
		backend.WithLogger(a.logger),
		backend.WithEntrySetOptions(a.setOpts...),
	)
}

// format returns the requested output format, or fallback when neither a
// flag nor the config file chose one.
func (a *app) format(fallback output.Format) (output.Format, error) {
	if !a.explicit[config.KeyOutput] {
		return fallback, nil
	}
	return output.ParseFormat(a.opts.output)
}

func printer(cmd *cobra.Command) *ui.Printer {
	return ui.New(cmd.OutOrStdout())
}

// confirm asks a yes/no question on the command's output. Without a
// terminal there is nobody to ask, so it refuses.
func (a *app) confirm(cmd *cobra.Command, prompt string) error {
	if f, ok := a.in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return fmt.Errorf("%w: no terminal to confirm on, pass --yes", ErrAborted)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	}
	return ErrAborted
}

// printError reports a failed command.
func printError(p *ui.Printer, err error) {
	p.Error("%v", err)
	if errkind.Is(err, errkind.BackendNotReady) {
		p.Info("Check the cluster with: kerbi release status <release>")
	}
}
