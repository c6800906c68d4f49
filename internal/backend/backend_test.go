package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/cameronsjo/kerbi/internal/errkind"
	"github.com/cameronsjo/kerbi/internal/kube"
	"github.com/cameronsjo/kerbi/internal/state"
)

const testEntries = `[
	{"tag":"1.0.0","message":"first","values":{"a":1},"default_values":{},"created_at":"2020-01-01T00:00:00Z"},
	{"tag":"[cand]-next","message":null,"values":{},"default_values":{},"created_at":"2021-01-01T00:00:00Z"}
]`

func stateConfigMap(namespace, release, entries string) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      ResourceName(release),
			Namespace: namespace,
			Labels:    map[string]string{CreatorLabel: CreatorValue},
		},
		Data: map[string]string{EntriesKey: entries},
	}
}

func namespace(name string) *corev1.Namespace {
	return &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
}

func newTestBackend(t *testing.T, objects ...runtime.Object) (*Backend, *fake.Clientset) {
	t.Helper()
	client := fake.NewSimpleClientset(objects...)
	store, err := kube.NewStore(kube.KindConfigMap, client)
	require.NoError(t, err)
	return New(store, "app", "demo"), client
}

func TestResourceNames(t *testing.T) {
	assert.Equal(t, "kerbi-app-db", ResourceName("app"))

	name, ok := ReleaseFromResourceName("kerbi-my-app-db")
	require.True(t, ok)
	assert.Equal(t, "my-app", name)

	_, ok = ReleaseFromResourceName("something-else")
	assert.False(t, ok)
}

func TestProvisionMissingResources(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBackend(t)

	report, err := b.ProvisionMissingResources(ctx)
	require.NoError(t, err)
	assert.True(t, report.NamespaceCreated)
	assert.True(t, report.ResourceCreated)

	report, err = b.ProvisionMissingResources(ctx)
	require.NoError(t, err)
	assert.False(t, report.NamespaceCreated)
	assert.False(t, report.ResourceCreated)

	set, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.True(t, b.IsReady(ctx))
}

func TestLoadMissingResourceIsNotReady(t *testing.T) {
	b, _ := newTestBackend(t, namespace("demo"))

	_, err := b.Load(context.Background())
	require.ErrorIs(t, err, ErrNotReady)
	assert.True(t, errkind.Is(err, errkind.BackendNotReady))
	assert.False(t, b.IsReady(context.Background()))
	assert.ErrorIs(t, b.RequireReady(context.Background()), ErrNotReady)
}

func TestLoadIsMemoized(t *testing.T) {
	ctx := context.Background()
	b, client := newTestBackend(t, namespace("demo"), stateConfigMap("demo", "app", testEntries))

	first, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"[cand]-next", "1.0.0"}, first.Tags())

	gets := 0
	client.PrependReactor("get", "configmaps", func(action k8stesting.Action) (bool, runtime.Object, error) {
		gets++
		return false, nil, nil
	})

	second, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Zero(t, gets)
}

func TestLoadMalformedData(t *testing.T) {
	b, _ := newTestBackend(t, namespace("demo"), stateConfigMap("demo", "app", "{nope"))

	_, err := b.Load(context.Background())
	require.ErrorIs(t, err, state.ErrMalformedRecord)
	assert.True(t, errkind.Is(err, errkind.Collaborator))
	assert.False(t, b.IsReady(context.Background()))
}

func TestSaveWritesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	b, client := newTestBackend(t, namespace("demo"), stateConfigMap("demo", "app", testEntries))

	set, err := b.Load(ctx)
	require.NoError(t, err)

	entry, err := set.FindOrInitForWrite("2.0.0")
	require.NoError(t, err)
	entry.Values = map[string]any{"replicas": "3"}
	entry.Touch(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, b.Save(ctx))

	reloaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.NotSame(t, set, reloaded)
	assert.Equal(t, "2.0.0", reloaded.Latest().Tag())
	assert.Equal(t, map[string]any{"replicas": "3"}, reloaded.Get("2.0.0").Values)

	cm, err := client.CoreV1().ConfigMaps("demo").Get(ctx, "kerbi-app-db", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Contains(t, cm.Data[EntriesKey], `"tag":"2.0.0"`)
	assert.Equal(t, CreatorValue, cm.Labels[CreatorLabel])
}

func TestSaveRejectsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	b, client := newTestBackend(t, namespace("demo"), stateConfigMap("demo", "app", testEntries))

	updates := 0
	client.PrependReactor("update", "configmaps", func(action k8stesting.Action) (bool, runtime.Object, error) {
		updates++
		return false, nil, nil
	})

	set, err := b.Load(ctx)
	require.NoError(t, err)
	_, err = set.FindOrInitForWrite("")
	require.NoError(t, err)

	err = b.Save(ctx)
	require.ErrorIs(t, err, state.ErrValidation)
	assert.Zero(t, updates)
}

func TestSaveConflict(t *testing.T) {
	ctx := context.Background()
	b, client := newTestBackend(t, namespace("demo"), stateConfigMap("demo", "app", testEntries))

	var sentVersion string
	client.PrependReactor("update", "configmaps", func(action k8stesting.Action) (bool, runtime.Object, error) {
		obj := action.(k8stesting.UpdateAction).GetObject().(*corev1.ConfigMap)
		sentVersion = obj.ResourceVersion
		return true, nil, apierrors.NewConflict(schema.GroupResource{Resource: "configmaps"}, obj.Name, errors.New("stale"))
	})

	_, err := b.Load(ctx)
	require.NoError(t, err)
	b.resource.Version = "42"

	err = b.Save(ctx)
	require.ErrorIs(t, err, ErrConflict)
	assert.True(t, errkind.Is(err, errkind.Conflict))
	assert.Equal(t, "42", sentVersion)
}

func TestSaveWithoutVersionCheck(t *testing.T) {
	ctx := context.Background()
	client := fake.NewSimpleClientset(namespace("demo"), stateConfigMap("demo", "app", testEntries))
	store, err := kube.NewStore(kube.KindConfigMap, client)
	require.NoError(t, err)
	b := New(store, "app", "demo", WithoutVersionCheck())

	sentVersion := "unset"
	client.PrependReactor("update", "configmaps", func(action k8stesting.Action) (bool, runtime.Object, error) {
		sentVersion = action.(k8stesting.UpdateAction).GetObject().(*corev1.ConfigMap).ResourceVersion
		return false, nil, nil
	})

	_, err = b.Load(ctx)
	require.NoError(t, err)
	b.resource.Version = "42"
	require.NoError(t, b.Save(ctx))
	assert.Empty(t, sentVersion)
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBackend(t, namespace("demo"), stateConfigMap("demo", "app", testEntries))

	set, err := b.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, b.DeleteEntry(ctx, set.Get("1.0.0")))

	reloaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"[cand]-next"}, reloaded.Tags())
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBackend(t, namespace("demo"), stateConfigMap("demo", "app", testEntries))

	require.NoError(t, b.Delete(ctx))
	_, err := b.Load(ctx)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSecretBackend(t *testing.T) {
	ctx := context.Background()
	store, err := kube.NewStore(kube.KindSecret, fake.NewSimpleClientset())
	require.NoError(t, err)
	b := New(store, "app", "demo", WithEntrySetOptions(state.WithTagGenerator(func() string { return "calm-river" })))

	_, err = b.ProvisionMissingResources(ctx)
	require.NoError(t, err)

	set, err := b.Load(ctx)
	require.NoError(t, err)
	entry, err := set.FindOrInitForWrite("@candidate")
	require.NoError(t, err)
	assert.Equal(t, "[cand]-calm-river", entry.Tag())
	require.NoError(t, b.Save(ctx))

	reloaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"[cand]-calm-river"}, reloaded.Tags())
	assert.Equal(t, kube.KindSecret, b.Kind())
}
