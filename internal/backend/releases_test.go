package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/cameronsjo/kerbi/internal/kube"
)

func TestReleases(t *testing.T) {
	unrelated := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "not-a-state-map",
			Namespace: "demo",
			Labels:    map[string]string{CreatorLabel: CreatorValue},
		},
	}
	client := fake.NewSimpleClientset(
		stateConfigMap("demo", "web", testEntries),
		stateConfigMap("demo", "api", "[]"),
		stateConfigMap("other", "broken", "{"),
		unrelated,
	)
	store, err := kube.NewStore(kube.KindConfigMap, client)
	require.NoError(t, err)

	releases, err := Releases(context.Background(), store, "")
	require.NoError(t, err)
	require.Len(t, releases, 3)

	assert.Equal(t, "api", releases[0].Name)
	assert.Equal(t, 0, releases[0].States)

	assert.Equal(t, "web", releases[1].Name)
	assert.Equal(t, 2, releases[1].States)
	assert.Equal(t, "1.0.0", releases[1].Latest)
	assert.Equal(t, kube.KindConfigMap, releases[1].Backend)

	assert.Equal(t, "broken", releases[2].Name)
	assert.Error(t, releases[2].Err)

	scoped, err := Releases(context.Background(), store, "other")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "kerbi-broken-db", scoped[0].Describe()["resource"])
}
