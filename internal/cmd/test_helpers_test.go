package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/cameronsjo/kerbi/internal/backend"
	"github.com/cameronsjo/kerbi/internal/config"
	"github.com/cameronsjo/kerbi/internal/kube"
	"github.com/cameronsjo/kerbi/internal/mixer"
)

const seededEntries = `[
	{"tag":"1.0.0","message":"first","values":{"replicas":"3"},"default_values":{"replicas":2},"created_at":"2024-01-01T00:00:00Z"},
	{"tag":"[cand]-next","message":"","values":{},"default_values":{},"created_at":"2024-02-01T00:00:00Z"}
]`

// harness wires a fresh command tree to a fake cluster and a temp config
// directory. Each execute builds a new tree so flag state never leaks.
type harness struct {
	t      *testing.T
	reg    *mixer.Registry
	client *fake.Clientset
	input  string
	opts   []Option

	// stderr holds what the last execute wrote to the error stream.
	stderr string
}

func newHarness(t *testing.T, objects ...runtime.Object) *harness {
	t.Helper()
	t.Setenv(config.EnvDir, t.TempDir())
	return &harness{
		t:      t,
		reg:    mixer.NewRegistry(),
		client: fake.NewSimpleClientset(objects...),
	}
}

// seededHarness has release "web" in namespace "default" with two entries.
func seededHarness(t *testing.T) *harness {
	return newHarness(t,
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}},
		&corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      backend.ResourceName("web"),
				Namespace: "default",
				Labels:    map[string]string{backend.CreatorLabel: backend.CreatorValue},
			},
			Data: map[string]string{backend.EntriesKey: seededEntries},
		},
	)
}

func (h *harness) connector(_ kube.Auth, kind string) (kube.Store, error) {
	return kube.NewStore(kind, h.client)
}

// execute runs the CLI with args and returns what it wrote to stdout.
func (h *harness) execute(args ...string) (string, error) {
	h.t.Helper()
	n := 0
	opts := append([]Option{
		WithConnector(h.connector),
		WithInput(strings.NewReader(h.input)),
		WithTagGenerator(func() string {
			n++
			return fmt.Sprintf("tag%d", n)
		}),
	}, h.opts...)

	root := NewRootCmd(h.reg, opts...)
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	// Important: Set args BEFORE setting output buffers
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetContext(context.Background())
	err := root.Execute()
	h.stderr = errOut.String()
	return out.String(), err
}

// executeCmd runs args against an empty cluster.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return newHarness(t).execute(args...)
}

// storedEntries returns the raw entries of a release.
func (h *harness) storedEntries(namespace, release string) string {
	h.t.Helper()
	cm, err := h.client.CoreV1().ConfigMaps(namespace).Get(context.Background(), backend.ResourceName(release), metav1.GetOptions{})
	require.NoError(h.t, err)
	return cm.Data[backend.EntriesKey]
}

// writeProject creates a project directory from name -> content pairs.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func writeFile(dir, name, content string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
}

var webProject = map[string]string{
	"values.yaml": "name: web\nreplicas: 2\n",
	"units/deployment.yaml.tmpl": `apiVersion: apps/v1
kind: Deployment
metadata:
  name: {{ .Values.name }}
  labels:
    release: {{ .Release }}
spec:
  replicas: {{ .Values.replicas }}
`,
	"units/service.yaml": `apiVersion: v1
kind: Service
metadata:
  name: web
`,
}
