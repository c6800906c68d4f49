// Package config handles the user config file and project discovery.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/kerbi/internal/errkind"
	"github.com/cameronsjo/kerbi/internal/fileutil"
)

const (
	// DirName is the config directory under the home directory.
	DirName = ".kerbi"

	// FileName is the config file inside DirName.
	FileName = "config.yaml"

	// EnvDir overrides the config directory.
	EnvDir = "KERBI_CONFIG_DIR"
)

// Keys accepted in the config file. Each matches the flag of the same name.
const (
	KeyNamespace         = "namespace"
	KeyStateBackend      = "state-backend"
	KeyAuthType          = "auth-type"
	KeyKubeConfigPath    = "kube-config-path"
	KeyKubeConfigContext = "kube-config-context"
	KeyUsername          = "username"
	KeyPassword          = "password"
	KeyToken             = "token"
	KeyOutput            = "output"
	KeyLogLevel          = "log-level"
	KeyLogFormat         = "log-format"
)

// LegalKeys lists every key the config file may hold.
var LegalKeys = []string{
	KeyNamespace,
	KeyStateBackend,
	KeyAuthType,
	KeyKubeConfigPath,
	KeyKubeConfigContext,
	KeyUsername,
	KeyPassword,
	KeyToken,
	KeyOutput,
	KeyLogLevel,
	KeyLogFormat,
}

// Defaults apply when neither a flag nor the config file sets a key.
var Defaults = map[string]string{
	KeyNamespace:    "default",
	KeyStateBackend: "configmap",
	KeyAuthType:     "kube-config",
	KeyOutput:       "yaml",
	KeyLogLevel:     "warn",
	KeyLogFormat:    "text",
}

// ErrIllegalKey is returned when setting a key the config file does not hold.
var ErrIllegalKey = errkind.New(errkind.Validation, "illegal config key")

// IsLegal reports whether key may be stored.
func IsLegal(key string) bool {
	return slices.Contains(LegalKeys, key)
}

// Dir returns the config directory.
func Dir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// File is the user config file.
type File struct {
	path string
}

// Open returns the file at path, or at the default location when path is
// empty. The file is not read until needed.
func Open(path string) (*File, error) {
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, FileName)
	}
	return &File{path: path}, nil
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Read returns the stored settings. A missing file reads as empty; unknown
// keys are ignored.
func (f *File) Read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", f.path, err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", f.path, err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if IsLegal(k) && v != nil {
			out[k] = fmt.Sprint(v)
		}
	}
	return out, nil
}

// Write replaces the stored settings, dropping unknown keys.
func (f *File) Write(settings map[string]string) error {
	clean := make(map[string]string, len(settings))
	for k, v := range settings {
		if IsLegal(k) {
			clean[k] = v
		}
	}

	data, err := yaml.Marshal(clean)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return fileutil.WriteFile(f.path, data, 0600)
}

// Get returns one stored value.
func (f *File) Get(key string) (string, bool, error) {
	if !IsLegal(key) {
		return "", false, fmt.Errorf("%w: %q", ErrIllegalKey, key)
	}
	settings, err := f.Read()
	if err != nil {
		return "", false, err
	}
	v, ok := settings[key]
	return v, ok, nil
}

// Set stores one value and returns the previous one.
func (f *File) Set(key, value string) (string, error) {
	if !IsLegal(key) {
		return "", fmt.Errorf("%w: %q (legal keys: %v)", ErrIllegalKey, key, LegalKeys)
	}
	settings, err := f.Read()
	if err != nil {
		return "", err
	}
	old := settings[key]
	settings[key] = value
	return old, f.Write(settings)
}

// Reset empties the file.
func (f *File) Reset() error {
	return f.Write(map[string]string{})
}

// rootMarkers identify a kerbi project directory.
var rootMarkers = []string{"values.yaml", "values.yaml.tmpl", "values.json", "values"}

// FindRoot searches upward from start for the nearest directory holding a
// values file or values/ directory. It returns start itself when nothing is
// found, so projects without values still render.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}
	origin := dir

	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return origin, nil
}
