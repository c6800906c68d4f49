package kube

import (
	"fmt"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/cameronsjo/kerbi/internal/errkind"
)

// AuthType selects how the client authenticates.
type AuthType string

// Supported auth types.
const (
	AuthKubeConfig AuthType = "kube-config"
	AuthInCluster  AuthType = "in-cluster"
	AuthBasic      AuthType = "basic"
	AuthToken      AuthType = "token"
)

// ErrBadAuth is returned for an unusable auth bundle.
var ErrBadAuth = errkind.New(errkind.Collaborator, "invalid kubernetes auth")

// Auth is the connection bundle used to build a client.
type Auth struct {
	Type AuthType

	// KubeConfigPath defaults to $KUBECONFIG, then ~/.kube/config.
	KubeConfigPath string

	// Context selects a kubeconfig context; empty means current.
	Context string

	// Host overrides the API server address.
	Host string

	Username string
	Password string
	Token    string
}

// RESTConfig builds client configuration for the bundle.
func (a Auth) RESTConfig() (*rest.Config, error) {
	switch a.Type {
	case AuthInCluster:
		cfg, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("%w: in-cluster: %v", ErrBadAuth, err)
		}
		return cfg, nil
	case AuthKubeConfig, "":
		return a.fromKubeConfig(&clientcmd.ConfigOverrides{})
	case AuthBasic:
		if a.Username == "" || a.Password == "" {
			return nil, fmt.Errorf("%w: basic auth needs a username and password", ErrBadAuth)
		}
		return a.fromKubeConfig(&clientcmd.ConfigOverrides{})
	case AuthToken:
		if a.Token == "" {
			return nil, fmt.Errorf("%w: token auth needs a token", ErrBadAuth)
		}
		return a.fromKubeConfig(&clientcmd.ConfigOverrides{})
	default:
		return nil, fmt.Errorf("%w: unknown auth type %q", ErrBadAuth, a.Type)
	}
}

// fromKubeConfig loads cluster details from kubeconfig and layers explicit
// credentials on top.
func (a Auth) fromKubeConfig(overrides *clientcmd.ConfigOverrides) (*rest.Config, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if a.KubeConfigPath != "" {
		rules.ExplicitPath = a.KubeConfigPath
	}
	overrides.CurrentContext = a.Context
	if a.Host != "" {
		overrides.ClusterInfo.Server = a.Host
	}

	switch a.Type {
	case AuthBasic:
		overrides.AuthInfo.Username = a.Username
		overrides.AuthInfo.Password = a.Password
	case AuthToken:
		overrides.AuthInfo.Token = a.Token
	}

	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadAuth, err)
	}
	return cfg, nil
}

// NewClient builds a clientset for the bundle.
func NewClient(a Auth) (kubernetes.Interface, error) {
	cfg, err := a.RESTConfig()
	if err != nil {
		return nil, err
	}
	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadAuth, err)
	}
	return client, nil
}
