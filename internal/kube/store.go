// Package kube talks to the cluster objects that hold release state.
//
// A Store hides whether state lives in a ConfigMap or a Secret behind a
// kind-neutral Resource of string key/value data.
package kube

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/cameronsjo/kerbi/internal/errkind"
)

// Store kinds.
const (
	KindConfigMap = "configmap"
	KindSecret    = "secret"
)

var (
	// ErrNotFound is returned when a namespace or resource does not exist.
	ErrNotFound = errkind.New(errkind.BackendNotReady, "not found")

	// ErrAlreadyExists is returned when creating something that exists.
	ErrAlreadyExists = errkind.New(errkind.Collaborator, "already exists")

	// ErrConflict is returned when an update carried a stale resource version.
	ErrConflict = errkind.New(errkind.Conflict, "resource changed since it was read")

	// ErrAPI wraps every other failure talking to the API server.
	ErrAPI = errkind.New(errkind.Collaborator, "kubernetes api")

	// ErrUnknownKind is returned for an unsupported store kind.
	ErrUnknownKind = errkind.New(errkind.Resolution, "unknown state backend")
)

// Resource is a namespaced object with string data.
type Resource struct {
	Name      string
	Namespace string
	Labels    map[string]string
	Data      map[string]string

	// Version is the server's resourceVersion. When set on Update it is used
	// as a precondition.
	Version string
}

// Store is the narrow slice of the Kubernetes API that state needs.
type Store interface {
	// Kind returns KindConfigMap or KindSecret.
	Kind() string
	Get(ctx context.Context, namespace, name string) (*Resource, error)
	Create(ctx context.Context, r *Resource) (*Resource, error)
	Update(ctx context.Context, r *Resource) (*Resource, error)
	Delete(ctx context.Context, namespace, name string) error
	// List returns resources matching selector. An empty namespace lists all.
	List(ctx context.Context, namespace, selector string) ([]*Resource, error)
	ListNamespaces(ctx context.Context) ([]string, error)
	// GetNamespace returns nil if the namespace exists.
	GetNamespace(ctx context.Context, name string) error
	CreateNamespace(ctx context.Context, name string) error
}

// NewStore returns the Store for kind over client.
func NewStore(kind string, client kubernetes.Interface) (Store, error) {
	switch kind {
	case KindConfigMap, "":
		return &configMapStore{namespaces{client}}, nil
	case KindSecret:
		return &secretStore{namespaces{client}}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want %s or %s)", ErrUnknownKind, kind, KindConfigMap, KindSecret)
	}
}

// namespaces implements the namespace half of Store.
type namespaces struct {
	client kubernetes.Interface
}

func (n namespaces) ListNamespaces(ctx context.Context) ([]string, error) {
	list, err := n.client.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, mapError(err, "list namespaces")
	}
	names := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		names = append(names, ns.Name)
	}
	return names, nil
}

func (n namespaces) GetNamespace(ctx context.Context, name string) error {
	_, err := n.client.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	return mapError(err, "namespace "+name)
}

func (n namespaces) CreateNamespace(ctx context.Context, name string) error {
	ns := newNamespace(name)
	_, err := n.client.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	return mapError(err, "create namespace "+name)
}

// mapError translates API errors onto package sentinels.
func mapError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case apierrors.IsNotFound(err):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case apierrors.IsAlreadyExists(err):
		return fmt.Errorf("%w: %s", ErrAlreadyExists, what)
	case apierrors.IsConflict(err):
		return fmt.Errorf("%w: %s: %v", ErrConflict, what, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrAPI, what, err)
	}
}
