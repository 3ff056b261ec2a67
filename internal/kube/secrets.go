package kube

import (
	"context"
	"fmt"
	"sync"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// SecretReader reads single keys from Kubernetes Secrets. It implements
// llm.SecretReader.
//
// The client is built on first use, so a config without secret references
// never needs a reachable cluster.
type SecretReader struct {
	// Namespace is used for references that do not name one.
	Namespace string

	connect func() (client.Client, error)
	once    sync.Once
	c       client.Client
	err     error
}

// NewSecretReader returns a reader that connects lazily through connect.
func NewSecretReader(namespace string, connect func() (client.Client, error)) *SecretReader {
	return &SecretReader{Namespace: namespace, connect: connect}
}

// ReadSecretKey fetches one value from a Kubernetes Secret by key name.
func (r *SecretReader) ReadSecretKey(ctx context.Context, namespace, secretName, key string) (string, error) {
	if secretName == "" {
		return "", fmt.Errorf("secret name is empty")
	}
	if namespace == "" {
		namespace = r.Namespace
	}

	r.once.Do(func() { r.c, r.err = r.connect() })
	if r.err != nil {
		return "", fmt.Errorf("connecting to Kubernetes: %w", r.err)
	}

	var secret corev1.Secret
	if err := r.c.Get(ctx, types.NamespacedName{Namespace: namespace, Name: secretName}, &secret); err != nil {
		return "", fmt.Errorf("get secret %s/%s: %w", namespace, secretName, err)
	}
	val, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("secret %s/%s has no key %q", namespace, secretName, key)
	}
	return string(val), nil
}
