package values

import (
	"log/slog"
)

// Compiler merges value sources into the mapping handed to mixers.
//
// Precedence, later wins: files (in order, the implicit default file first),
// then inline assignments, then values carried over from prior state.
type Compiler struct {
	// Root is the directory file expressions are resolved against.
	Root string

	// Files are values file expressions from the command line.
	Files []string

	// Inline are key.path=value assignments.
	Inline []string

	// SkipDefaults disables the implicit default values file.
	SkipDefaults bool

	// State holds values from a previously recorded state entry.
	State map[string]any
}

// Result is the output of a compilation.
type Result struct {
	// Values is the fully merged mapping.
	Values map[string]any

	// Defaults holds file-sourced values only, used to compute overrides.
	Defaults map[string]any
}

// Compile resolves and merges every source.
func (c *Compiler) Compile() (*Result, error) {
	paths, err := ResolveFiles(c.Root, c.fileNames())
	if err != nil {
		return nil, err
	}
	slog.Debug("compiling values", "files", paths, "inline", len(c.Inline), "state", len(c.State))

	fromFiles, err := LoadFiles(paths)
	if err != nil {
		return nil, err
	}

	inline, err := ParseInline(c.Inline)
	if err != nil {
		return nil, err
	}

	defaults, err := c.defaults()
	if err != nil {
		return nil, err
	}

	return &Result{
		Values:   MergeAll(fromFiles, inline, c.State),
		Defaults: defaults,
	}, nil
}

// defaults loads only the implicit default file.
func (c *Compiler) defaults() (map[string]any, error) {
	if c.SkipDefaults {
		return map[string]any{}, nil
	}
	paths, err := ResolveFiles(c.Root, []string{DefaultFile})
	if err != nil {
		return nil, err
	}
	return LoadFiles(paths)
}

func (c *Compiler) fileNames() []string {
	if c.SkipDefaults {
		return c.Files
	}
	return append([]string{DefaultFile}, c.Files...)
}
