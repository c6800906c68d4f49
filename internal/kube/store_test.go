package kube

import (
	"context"
	"testing"

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
)

func TestNewStore(t *testing.T) {
	client := fake.NewSimpleClientset()

	tests := []struct {
		kind    string
		want    string
		wantErr bool
	}{
		{kind: "", want: KindConfigMap},
		{kind: KindConfigMap, want: KindConfigMap},
		{kind: KindSecret, want: KindSecret},
		{kind: "etcd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			store, err := NewStore(tt.kind, client)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, store.Kind())
		})
	}
}

func TestStoreLifecycle(t *testing.T) {
	for _, kind := range []string{KindConfigMap, KindSecret} {
		t.Run(kind, func(t *testing.T) {
			ctx := context.Background()
			store, err := NewStore(kind, fake.NewSimpleClientset())
			require.NoError(t, err)

			_, err = store.Get(ctx, "demo", "kerbi-app-db")
			require.ErrorIs(t, err, ErrNotFound)
			assert.True(t, errkind.Is(err, errkind.BackendNotReady))

			created, err := store.Create(ctx, &Resource{
				Name:      "kerbi-app-db",
				Namespace: "demo",
				Labels:    map[string]string{"creator": "kerbi"},
				Data:      map[string]string{"entries": "[]"},
			})
			require.NoError(t, err)
			assert.Equal(t, "[]", created.Data["entries"])

			_, err = store.Create(ctx, &Resource{Name: "kerbi-app-db", Namespace: "demo"})
			require.ErrorIs(t, err, ErrAlreadyExists)

			got, err := store.Get(ctx, "demo", "kerbi-app-db")
			require.NoError(t, err)
			got.Data["entries"] = `[{"tag":"x"}]`
			_, err = store.Update(ctx, got)
			require.NoError(t, err)

			got, err = store.Get(ctx, "demo", "kerbi-app-db")
			require.NoError(t, err)
			assert.Equal(t, `[{"tag":"x"}]`, got.Data["entries"])

			list, err := store.List(ctx, "", "creator=kerbi")
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "demo", list[0].Namespace)

			require.NoError(t, store.Delete(ctx, "demo", "kerbi-app-db"))
			require.ErrorIs(t, store.Delete(ctx, "demo", "kerbi-app-db"), ErrNotFound)
		})
	}
}

func TestNamespaces(t *testing.T) {
	ctx := context.Background()
	client := fake.NewSimpleClientset(&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}})
	store, err := NewStore(KindConfigMap, client)
	require.NoError(t, err)

	require.NoError(t, store.GetNamespace(ctx, "default"))
	require.ErrorIs(t, store.GetNamespace(ctx, "demo"), ErrNotFound)

	require.NoError(t, store.CreateNamespace(ctx, "demo"))
	require.ErrorIs(t, store.CreateNamespace(ctx, "demo"), ErrAlreadyExists)

	names, err := store.ListNamespaces(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"default", "demo"}, names)
}

func TestUpdateConflictMapsToErrConflict(t *testing.T) {
	ctx := context.Background()
	client := fake.NewSimpleClientset(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "kerbi-app-db", Namespace: "demo"},
	})
	client.PrependReactor("update", "configmaps", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, apierrors.NewConflict(schema.GroupResource{Resource: "configmaps"}, "kerbi-app-db", nil)
	})

	store, err := NewStore(KindConfigMap, client)
	require.NoError(t, err)

	_, err = store.Update(ctx, &Resource{Name: "kerbi-app-db", Namespace: "demo", Version: "1"})
	require.ErrorIs(t, err, ErrConflict)
	assert.True(t, errkind.Is(err, errkind.Conflict))
}

func TestAPIErrorsAreCollaboratorErrors(t *testing.T) {
	client := fake.NewSimpleClientset()
	client.PrependReactor("list", "namespaces", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, apierrors.NewUnauthorized("bad token")
	})

	store, err := NewStore(KindConfigMap, client)
	require.NoError(t, err)

	_, err = store.ListNamespaces(context.Background())
	require.ErrorIs(t, err, ErrAPI)
	assert.True(t, errkind.Is(err, errkind.Collaborator))
	assert.Contains(t, err.Error(), "bad token")
}
