package mixer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/kerbi/internal/errkind"
	"github.com/cameronsjo/kerbi/internal/values"
)

// Unit file extensions.
const (
	UnitExt     = ".yaml"
	TemplateExt = ".tmpl"
)

var (
	// ErrUnitNotFound is returned when no candidate path exists for a unit.
	ErrUnitNotFound = errkind.New(errkind.Resolution, "template unit not found")

	// ErrUnitTemplate is returned when a unit fails to interpolate, including
	// references to missing values.
	ErrUnitTemplate = errkind.New(errkind.Resolution, "template unit failed to render")

	// ErrUnitSyntax is returned when a rendered unit is not valid YAML.
	ErrUnitSyntax = errkind.New(errkind.Validation, "template unit is not valid YAML")
)

// unitCandidates lists the paths probed for a logical unit name, in order.
func (c *Context) unitCandidates(name string) []string {
	names := []string{name, name + UnitExt, name + UnitExt + TemplateExt}
	candidates := slices.Clone(names)
	if dir := c.dir(); dir != "" {
		for _, n := range names {
			candidates = append(candidates, filepath.Join(dir, n))
		}
	}
	return candidates
}

func (c *Context) dir() string {
	if l, ok := c.mixer.(Locator); ok {
		return l.Dir()
	}
	return ""
}

func (c *Context) resolveUnit(name string) (string, error) {
	candidates := c.unitCandidates(name)
	for _, candidate := range candidates {
		if info, err := c.stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %q (tried %s)", ErrUnitNotFound, name, strings.Join(candidates, ", "))
}

func (c *Context) resolveDir(name string) (string, error) {
	candidates := []string{name}
	if dir := c.dir(); dir != "" {
		candidates = append(candidates, filepath.Join(dir, name))
	}
	for _, candidate := range candidates {
		if info, err := c.stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: directory %q (tried %s)", ErrUnitNotFound, name, strings.Join(candidates, ", "))
}

// unitsIn lists the unit files of a directory in file name order.
func (c *Context) unitsIn(name string, blacklist []string) ([]string, error) {
	if name == "" {
		name = "."
	}
	dir, err := c.resolveDir(name)
	if err != nil {
		return nil, err
	}
	entries, err := c.readDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnitNotFound, dir, err)
	}

	var files []string
	for _, entry := range entries {
		fname := entry.Name()
		if entry.IsDir() || !isUnitFile(fname) || slices.Contains(blacklist, fname) {
			continue
		}
		files = append(files, filepath.Join(dir, fname))
	}
	return files, nil
}

func isUnitFile(name string) bool {
	return strings.HasSuffix(name, UnitExt) || strings.HasSuffix(name, UnitExt+TemplateExt)
}

// loadFile interpolates one unit and parses every document in it.
func (c *Context) loadFile(file string, o options) ([]Fragment, error) {
	raw, err := c.readFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnitNotFound, file, err)
	}

	rendered, err := c.interpolate(file, raw, o.extras)
	if err != nil {
		return nil, err
	}

	docs, err := parseDocuments(rendered)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnitSyntax, file, err)
	}

	c.logger.DebugContext(c.ctx, "loaded unit", slog.String("file", file), slog.Int("documents", len(docs)))
	return Fragments(docs), nil
}

func (c *Context) interpolate(file string, raw []byte, extras map[string]any) ([]byte, error) {
	tmpl, err := template.New(filepath.Base(file)).
		Option("missingkey=error").
		Funcs(c.funcMap()).
		Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnitTemplate, file, err)
	}

	if extras == nil {
		extras = map[string]any{}
	}
	data := map[string]any{
		"Values":  c.values.Raw(),
		"Release": c.release,
		"Extras":  extras,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnitTemplate, file, err)
	}
	return buf.Bytes(), nil
}

// parseDocuments decodes a multi-document YAML stream. Empty documents come
// back as nil and are dropped later by Fragments.
func parseDocuments(data []byte) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []any
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, values.Normalize(doc))
	}
}

func (c *Context) stat(name string) (fs.FileInfo, error) {
	if filepath.IsAbs(name) {
		return os.Stat(name)
	}
	p, err := fsPath(name)
	if err != nil {
		return nil, err
	}
	return fs.Stat(c.fsys, p)
}

func (c *Context) readFile(name string) ([]byte, error) {
	if filepath.IsAbs(name) {
		return os.ReadFile(name)
	}
	p, err := fsPath(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(c.fsys, p)
}

func (c *Context) readDir(name string) ([]fs.DirEntry, error) {
	if filepath.IsAbs(name) {
		return os.ReadDir(name)
	}
	p, err := fsPath(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadDir(c.fsys, p)
}

// fsPath converts a relative OS path into an io/fs path.
func fsPath(name string) (string, error) {
	p := path.Clean(filepath.ToSlash(name))
	if !fs.ValidPath(p) {
		return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return p, nil
}
