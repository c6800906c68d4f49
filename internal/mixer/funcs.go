package mixer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/kerbi/internal/values"
)

const rawGitHubBase = "https://raw.githubusercontent.com"

// funcMap is sprig's text functions plus the unit helpers.
func (c *Context) funcMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["b64dec"] = b64dec
	funcs["b64encFile"] = c.b64encFile
	funcs["toYaml"] = toYAML
	funcs["fromYaml"] = fromYAML
	funcs["embed"] = embed
	funcs["embedArray"] = embedArray
	funcs["url"] = httpDescriptorURL
	funcs["httpDescriptor"] = httpDescriptorURL
	return funcs
}

func b64dec(s string) string {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(decoded))
}

// b64encFile encodes a file's content, or returns "" if it cannot be read.
func (c *Context) b64encFile(name string) string {
	data, err := c.readFile(name)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

func marshalYAML(v any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toYAML(v any) (string, error) {
	out, err := marshalYAML(v)
	return strings.TrimSuffix(out, "\n"), err
}

func fromYAML(s string) (map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal([]byte(s), &doc); err != nil {
		return nil, err
	}
	m, _ := values.NormalizeMap(doc)
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// embed renders a mapping as YAML indented for inclusion under a key. A list
// embeds its first element.
func embed(v any, indent int) (string, error) {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			v = map[string]any{}
		} else {
			v = list[0]
		}
	}
	return indented(v, indent)
}

// embedArray renders a list as YAML indented for inclusion under a key.
func embedArray(v any, indent int) (string, error) {
	switch v.(type) {
	case nil:
		v = []any{}
	case []any, []map[string]any, []string:
	default:
		return "", fmt.Errorf("embedArray called with non-list %T", v)
	}
	return indented(v, indent)
}

func indented(v any, indent int) (string, error) {
	out, err := marshalYAML(v)
	if err != nil {
		return "", err
	}
	pad := strings.Repeat(" ", indent)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return "\n" + strings.Join(lines, "\n"), nil
}

// httpDescriptorURL turns {url} or {from: github, project, branch, file}
// into a URL.
func httpDescriptorURL(desc map[string]any) (string, error) {
	str := func(key string) string {
		s, _ := desc[key].(string)
		return s
	}

	if u := str("url"); u != "" {
		return u, nil
	}
	if str("from") != "github" {
		return "", fmt.Errorf("http descriptor needs url or from=github")
	}

	project := str("project")
	if project == "" {
		project = str("id")
	}
	branch := str("branch")
	if branch == "" {
		branch = "master"
	}
	file := str("file")
	if project == "" || file == "" {
		return "", fmt.Errorf("http descriptor: project and/or file not found")
	}
	return rawGitHubBase + "/" + project + "/" + branch + "/" + file, nil
}
