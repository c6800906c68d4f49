package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/kerbi/internal/errkind"
	"github.com/cameronsjo/kerbi/internal/preflight"
	"github.com/cameronsjo/kerbi/internal/ui"
	"github.com/cameronsjo/kerbi/internal/update"
)

// ErrDoctor is returned when a required check fails.
var ErrDoctor = errkind.New(errkind.Collaborator, "pre-flight checks failed")

func (a *app) doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Pre-flight checks for helm, kubectl and the cluster config",
		Long: `Check that the binaries kerbi uses are installed, that the config file
reads, and that cluster credentials resolve. Nothing is sent to the cluster;
use "kerbi release status <release>" for that.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDoctor(cmd, preflight.New())
		},
	}
}

func (a *app) runDoctor(cmd *cobra.Command, checker *preflight.Checker) error {
	w := cmd.OutOrStdout()
	p := ui.New(w)
	p.Info("Running pre-flight checks...")
	fmt.Fprintln(w)

	passed, warned, failed := 0, 0, 0

	for _, bin := range checker.All() {
		switch {
		case checker.Available(bin.Name):
			p.Success("%s is installed (%s)", bin.Name, bin.Purpose)
			passed++
		case bin.Required:
			p.Error("%s not found (%s)", bin.Name, bin.Purpose)
			p.Info("    %s", bin.InstallHint)
			failed++
		default:
			p.Warning("%s not found (%s)", bin.Name, bin.Purpose)
			p.Info("    %s", bin.InstallHint)
			warned++
		}
	}

	if _, err := a.cfg.Read(); err != nil {
		p.Error("config file %s: %v", a.cfg.Path(), err)
		failed++
	} else {
		p.Success("config file readable: %s", a.cfg.Path())
		passed++
	}

	if cfg, err := a.auth().RESTConfig(); err != nil {
		p.Warning("cluster credentials (%s): %v", a.opts.authType, err)
		warned++
	} else {
		p.Success("cluster credentials resolve (%s, %s)", a.opts.authType, cfg.Host)
		passed++
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, "Summary: ")
	ui.Green.Fprintf(w, "%d passed", passed)
	fmt.Fprint(w, ", ")
	ui.Yellow.Fprintf(w, "%d warnings", warned)
	fmt.Fprint(w, ", ")
	ui.Red.Fprintf(w, "%d failed\n", failed)

	if failed > 0 {
		return fmt.Errorf("%w: %d failed", ErrDoctor, failed)
	}
	return nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "kerbi version %s (%s)\n", version, update.GetPlatformInfo())
			if rev := a.reg.Revision(); rev != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "mixers revision %s (%d registered)\n", rev, a.reg.Len())
			}
			return nil
		},
	}
}
