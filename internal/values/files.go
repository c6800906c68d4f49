package values

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/getsops/sops/v3/decrypt"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the logical name of the implicit defaults file. It is
// optional: a project without one simply has no defaults.
const DefaultFile = "values"

// TemplateExt marks files rendered with text/template before parsing.
const TemplateExt = ".tmpl"

// CandidatePaths returns every path a values file expression may resolve to,
// most specific first. Existence is not checked.
func CandidatePaths(root, name string) []string {
	join := func(parts ...string) string {
		return filepath.Join(append([]string{root}, parts...)...)
	}
	return []string{
		join(name),
		join(name + ".yaml"),
		join(name + ".json"),
		join(name + ".yaml" + TemplateExt),
		join("values", name),
		join("values", name+".yaml"+TemplateExt),
		join("values", name+".yaml"),
		join("values", name+".json"),
	}
}

// ResolveFile returns the first candidate path for name that exists as a
// regular file, or "" when none does.
func ResolveFile(root, name string) string {
	for _, candidate := range CandidatePaths(root, name) {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// ResolveFiles resolves each expression, deduplicating paths while keeping
// the first occurrence. The implicit default file may be missing; any other
// unresolved expression fails with ErrValuesFileNotFound.
func ResolveFiles(root string, names []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	for _, name := range names {
		path := ResolveFile(root, name)
		if path == "" {
			if name == DefaultFile {
				continue
			}
			return nil, fmt.Errorf("%w: %s (searched under %s)", ErrValuesFileNotFound, name, displayRoot(root))
		}
		if seen[path] {
			continue
		}
		seen[path] = true
		paths = append(paths, path)
	}

	return paths, nil
}

// LoadFile reads one values file. Templated files are rendered first and
// sops-encrypted documents are decrypted in-process.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrValuesFileNotFound, path)
		}
		return nil, fmt.Errorf("read values file %s: %w", path, err)
	}

	if strings.HasSuffix(path, TemplateExt) {
		data, err = renderTemplate(path, data)
		if err != nil {
			return nil, err
		}
	}

	format := formatOf(path)
	doc, err := parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse values file %s: %w", path, err)
	}

	if isEncrypted(doc) {
		slog.Debug("decrypting values file", "path", path)
		plain, err := decrypt.Data(data, format)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecrypt, path, err)
		}
		doc, err = parse(plain, format)
		if err != nil {
			return nil, fmt.Errorf("parse decrypted values file %s: %w", path, err)
		}
	}

	return doc, nil
}

// LoadFiles loads and deep-merges files in order. Later files win.
func LoadFiles(paths []string) (map[string]any, error) {
	result := make(map[string]any)
	for _, path := range paths {
		doc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		result = DeepMerge(result, doc)
	}
	return result, nil
}

func parse(data []byte, format string) (map[string]any, error) {
	var raw any
	switch format {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}

	if raw == nil {
		return map[string]any{}, nil
	}
	m, ok := NormalizeMap(raw)
	if !ok {
		return nil, ErrNotMapping
	}
	return m, nil
}

func renderTemplate(path string, data []byte) ([]byte, error) {
	tmpl, err := template.New(filepath.Base(path)).
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse values template %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		return nil, fmt.Errorf("render values template %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// isEncrypted reports whether a parsed document carries sops metadata.
func isEncrypted(doc map[string]any) bool {
	meta, ok := doc["sops"].(map[string]any)
	if !ok {
		return false
	}
	_, hasMac := meta["mac"]
	return hasMac
}

func formatOf(path string) string {
	trimmed := strings.TrimSuffix(path, TemplateExt)
	if strings.EqualFold(filepath.Ext(trimmed), ".json") {
		return "json"
	}
	return "yaml"
}

func displayRoot(root string) string {
	if root == "" {
		return "."
	}
	return root
}
