package kube

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func newNamespace(name string) *corev1.Namespace {
	return &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
}

func objectMeta(r *Resource) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:            r.Name,
		Namespace:       r.Namespace,
		Labels:          r.Labels,
		ResourceVersion: r.Version,
	}
}

func fromMeta(meta metav1.ObjectMeta, data map[string]string) *Resource {
	return &Resource{
		Name:      meta.Name,
		Namespace: meta.Namespace,
		Labels:    meta.Labels,
		Data:      data,
		Version:   meta.ResourceVersion,
	}
}

type configMapStore struct {
	namespaces
}

func (s *configMapStore) Kind() string { return KindConfigMap }

func (s *configMapStore) Get(ctx context.Context, namespace, name string) (*Resource, error) {
	cm, err := s.client.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, mapError(err, "configmap "+namespace+"/"+name)
	}
	return fromConfigMap(cm), nil
}

func (s *configMapStore) Create(ctx context.Context, r *Resource) (*Resource, error) {
	cm, err := s.client.CoreV1().ConfigMaps(r.Namespace).Create(ctx, toConfigMap(r), metav1.CreateOptions{})
	if err != nil {
		return nil, mapError(err, "create configmap "+r.Namespace+"/"+r.Name)
	}
	return fromConfigMap(cm), nil
}

func (s *configMapStore) Update(ctx context.Context, r *Resource) (*Resource, error) {
	cm, err := s.client.CoreV1().ConfigMaps(r.Namespace).Update(ctx, toConfigMap(r), metav1.UpdateOptions{})
	if err != nil {
		return nil, mapError(err, "update configmap "+r.Namespace+"/"+r.Name)
	}
	return fromConfigMap(cm), nil
}

func (s *configMapStore) Delete(ctx context.Context, namespace, name string) error {
	err := s.client.CoreV1().ConfigMaps(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	return mapError(err, "delete configmap "+namespace+"/"+name)
}

func (s *configMapStore) List(ctx context.Context, namespace, selector string) ([]*Resource, error) {
	list, err := s.client.CoreV1().ConfigMaps(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, mapError(err, "list configmaps")
	}
	out := make([]*Resource, 0, len(list.Items))
	for i := range list.Items {
		out = append(out, fromConfigMap(&list.Items[i]))
	}
	return out, nil
}

func toConfigMap(r *Resource) *corev1.ConfigMap {
	return &corev1.ConfigMap{ObjectMeta: objectMeta(r), Data: r.Data}
}

func fromConfigMap(cm *corev1.ConfigMap) *Resource {
	return fromMeta(cm.ObjectMeta, cm.Data)
}

type secretStore struct {
	namespaces
}

func (s *secretStore) Kind() string { return KindSecret }

func (s *secretStore) Get(ctx context.Context, namespace, name string) (*Resource, error) {
	secret, err := s.client.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, mapError(err, "secret "+namespace+"/"+name)
	}
	return fromSecret(secret), nil
}

func (s *secretStore) Create(ctx context.Context, r *Resource) (*Resource, error) {
	secret, err := s.client.CoreV1().Secrets(r.Namespace).Create(ctx, toSecret(r), metav1.CreateOptions{})
	if err != nil {
		return nil, mapError(err, "create secret "+r.Namespace+"/"+r.Name)
	}
	return fromSecret(secret), nil
}

func (s *secretStore) Update(ctx context.Context, r *Resource) (*Resource, error) {
	secret, err := s.client.CoreV1().Secrets(r.Namespace).Update(ctx, toSecret(r), metav1.UpdateOptions{})
	if err != nil {
		return nil, mapError(err, "update secret "+r.Namespace+"/"+r.Name)
	}
	return fromSecret(secret), nil
}

func (s *secretStore) Delete(ctx context.Context, namespace, name string) error {
	err := s.client.CoreV1().Secrets(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	return mapError(err, "delete secret "+namespace+"/"+name)
}

func (s *secretStore) List(ctx context.Context, namespace, selector string) ([]*Resource, error) {
	list, err := s.client.CoreV1().Secrets(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, mapError(err, "list secrets")
	}
	out := make([]*Resource, 0, len(list.Items))
	for i := range list.Items {
		out = append(out, fromSecret(&list.Items[i]))
	}
	return out, nil
}

func toSecret(r *Resource) *corev1.Secret {
	data := make(map[string][]byte, len(r.Data))
	for k, v := range r.Data {
		data[k] = []byte(v)
	}
	return &corev1.Secret{
		ObjectMeta: objectMeta(r),
		Type:       corev1.SecretTypeOpaque,
		Data:       data,
	}
}

func fromSecret(secret *corev1.Secret) *Resource {
	data := make(map[string]string, len(secret.Data)+len(secret.StringData))
	for k, v := range secret.Data {
		data[k] = string(v)
	}
	for k, v := range secret.StringData {
		data[k] = v
	}
	return fromMeta(secret.ObjectMeta, data)
}

var (
	_ Store = (*configMapStore)(nil)
	_ Store = (*secretStore)(nil)
)
