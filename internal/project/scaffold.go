package project

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/cameronsjo/kerbi/internal/errkind"
	"github.com/cameronsjo/kerbi/internal/fileutil"
)

//go:embed scaffold
var scaffold embed.FS

const namePlaceholder = "__NAME__"

// UnitsDir is where scaffolded projects keep their template units.
const UnitsDir = "units"

var (
	// ErrInvalidName is returned for a project name that is not a DNS label.
	ErrInvalidName = errkind.New(errkind.Validation, "invalid project name")

	// ErrExists is returned when the target directory is not empty.
	ErrExists = errkind.New(errkind.Conflict, "project directory already exists")

	namePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)
)

// Scaffold writes a starter project named name into parent/name and returns
// the files it wrote.
func Scaffold(parent, name string) ([]string, error) {
	if len(name) > 63 || !namePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: %q must be a lowercase DNS label", ErrInvalidName, name)
	}

	dst := filepath.Join(parent, name)
	if entries, err := os.ReadDir(dst); err == nil && len(entries) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrExists, dst)
	}

	sub, err := fs.Sub(scaffold, "scaffold")
	if err != nil {
		return nil, err
	}
	return fileutil.WriteFS(sub, dst, false, func(_ string, data []byte) []byte {
		return bytes.ReplaceAll(data, []byte(namePlaceholder), []byte(name))
	})
}
