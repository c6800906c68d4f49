// Package helm renders charts by shelling out to the helm binary.
package helm

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-shellwords"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	k8syaml "sigs.k8s.io/yaml"

	"github.com/cameronsjo/kerbi/internal/errkind"
)

// DefaultBinary is looked up on PATH when no path is configured.
const DefaultBinary = "helm"

var (
	// ErrNotInstalled is returned when the helm binary cannot be executed.
	ErrNotInstalled = errkind.New(errkind.Collaborator, "helm binary not available")

	// ErrRender is returned when helm exits non-zero.
	ErrRender = errkind.New(errkind.Collaborator, "helm template failed")

	// ErrInvalidOutput is returned when helm output is not a stream of objects.
	ErrInvalidOutput = errkind.New(errkind.Collaborator, "invalid helm output")

	// ErrInvalidArgs is returned when the extra argument string cannot be split.
	ErrInvalidArgs = errkind.New(errkind.Resolution, "invalid helm arguments")
)

// Options tune one render.
type Options struct {
	// Values are written to a temporary file passed with -f.
	Values map[string]any

	// Args is a shell-style string of extra flags, e.g. "--version 1.2.3".
	Args string

	// ExtraArgs are appended after Args without splitting.
	ExtraArgs []string

	// Repo is passed as --repo when set.
	Repo string

	// Namespace is passed as --namespace when set.
	Namespace string

	// Set becomes one --set key=value flag per entry, sorted by key.
	Set map[string]string
}

// Renderer renders a chart into manifest objects.
type Renderer interface {
	Render(ctx context.Context, release, chart string, opts Options) ([]map[string]any, error)
}

// Binary runs the helm executable.
type Binary struct {
	path   string
	tmpDir string
	logger *slog.Logger
}

// Option configures a Binary.
type Option func(*Binary)

// WithPath sets the helm executable.
func WithPath(path string) Option {
	return func(b *Binary) {
		if path != "" {
			b.path = path
		}
	}
}

// WithTempDir sets where values files are written.
func WithTempDir(dir string) Option {
	return func(b *Binary) {
		b.tmpDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binary) {
		b.logger = logger
	}
}

// New returns a helm Binary.
func New(opts ...Option) *Binary {
	b := &Binary{
		path:   DefaultBinary,
		tmpDir: os.TempDir(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ Renderer = (*Binary)(nil)

// Path returns the configured executable.
func (b *Binary) Path() string { return b.path }

// CanExec reports whether the helm executable can be found.
func (b *Binary) CanExec() bool {
	_, err := exec.LookPath(b.path)
	return err == nil
}

// Render runs helm template and parses its output.
func (b *Binary) Render(ctx context.Context, release, chart string, opts Options) ([]map[string]any, error) {
	if !b.CanExec() {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, b.path)
	}

	valuesFile, err := b.writeValues(opts.Values)
	if err != nil {
		return nil, err
	}
	defer os.Remove(valuesFile)

	args, err := templateArgs(release, chart, valuesFile, opts)
	if err != nil {
		return nil, err
	}

	stdout, err := b.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return ParseManifests(stdout)
}

func templateArgs(release, chart, valuesFile string, opts Options) ([]string, error) {
	args := []string{"template", release, chart, "-f", valuesFile}
	if opts.Repo != "" {
		args = append(args, "--repo", opts.Repo)
	}
	if opts.Namespace != "" {
		args = append(args, "--namespace", opts.Namespace)
	}
	for _, key := range slices.Sorted(maps.Keys(opts.Set)) {
		args = append(args, "--set", key+"="+opts.Set[key])
	}
	if strings.TrimSpace(opts.Args) != "" {
		extra, err := shellwords.Parse(opts.Args)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidArgs, opts.Args, err)
		}
		args = append(args, extra...)
	}
	return append(args, opts.ExtraArgs...), nil
}

func (b *Binary) writeValues(values map[string]any) (string, error) {
	if values == nil {
		values = map[string]any{}
	}
	data, err := yaml.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode chart values: %w", err)
	}

	path := filepath.Join(b.tmpDir, "kerbi-values-"+uuid.New().String()[:8]+".yaml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write chart values: %w", err)
	}
	return path, nil
}

func (b *Binary) run(ctx context.Context, args ...string) ([]byte, error) {
	logger := b.logger.With(slog.String("command", b.path+" "+strings.Join(args, " ")))
	start := time.Now()

	//nolint:gosec // arguments come from the project's own mixers.
	cmd := exec.CommandContext(ctx, b.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.DebugContext(ctx, "helm failed", slog.Duration("duration", time.Since(start)), slog.Any("error", err))
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrRender, msg)
	}

	logger.DebugContext(ctx, "helm finished", slog.Duration("duration", time.Since(start)))
	return stdout.Bytes(), nil
}

// ParseManifests splits a multi-document YAML stream into objects. Empty and
// null documents are skipped.
func ParseManifests(data []byte) ([]map[string]any, error) {
	var objects []map[string]any
	for _, doc := range splitDocuments(data) {
		u := &unstructured.Unstructured{}
		if err := k8syaml.Unmarshal([]byte(doc), &u.Object); err != nil {
			return objects, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
		if len(u.Object) == 0 {
			continue
		}
		objects = append(objects, u.Object)
	}
	return objects, nil
}

func splitDocuments(data []byte) []string {
	var docs []string
	var current []string

	flush := func() {
		doc := strings.TrimSpace(strings.Join(current, "\n"))
		if doc != "" && doc != "null" {
			docs = append(docs, doc)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		if line == "---" || strings.HasPrefix(line, "--- ") {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return docs
}
