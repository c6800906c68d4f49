// Package preflight checks for the external binaries kerbi shells out to.
package preflight

import (
	"os/exec"
)

// BinaryCheck represents a binary and its purpose.
type BinaryCheck struct {
	Name        string
	Purpose     string
	Required    bool   // false = warning only
	InstallHint string // e.g., "brew install helm" or "https://..."
}

// requiredBinaries must be present for every render that uses charts.
var requiredBinaries = []BinaryCheck{
	{
		Name:        "helm",
		Purpose:     "renders charts in mixers",
		Required:    true,
		InstallHint: "Install helm: https://helm.sh/docs/intro/install/",
	},
}

// optionalBinaries are handy alongside kerbi but never called by it.
var optionalBinaries = []BinaryCheck{
	{
		Name:        "kubectl",
		Purpose:     "applies rendered manifests",
		Required:    false,
		InstallHint: "Install kubectl: https://kubernetes.io/docs/tasks/tools/",
	},
	{
		Name:        "sops",
		Purpose:     "edits encrypted values files",
		Required:    false,
		InstallHint: "Install sops: brew install sops",
	},
}

// Checker looks binaries up on PATH.
type Checker struct {
	Required []BinaryCheck
	Optional []BinaryCheck

	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// New returns a Checker for kerbi's binaries.
func New() *Checker {
	return &Checker{
		Required: requiredBinaries,
		Optional: optionalBinaries,
		LookPath: exec.LookPath,
	}
}

// All returns every configured binary, required first.
func (c *Checker) All() []BinaryCheck {
	return append(append([]BinaryCheck{}, c.Required...), c.Optional...)
}

// Available reports whether name is on PATH.
func (c *Checker) Available(name string) bool {
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	_, err := lookPath(name)
	return err == nil
}
