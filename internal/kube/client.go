// Package kube talks to the Kubernetes API for the doctor: it resolves
// secret-sourced credentials and collects the failure context of CI Jobs.
package kube

import (
	"fmt"

	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/config"
)

// Clients bundles the two clients the package needs.
type Clients struct {
	// Ctrl is the controller-runtime client (used for Jobs, Pods, Events, Secrets).
	Ctrl client.Client
	// Kube is the raw clientset required for pod log streaming.
	Kube kubernetes.Interface
}

// NewClients builds Clients from the ambient kubeconfig: --kubeconfig,
// $KUBECONFIG, the in-cluster service account, or ~/.kube/config.
func NewClients() (*Clients, error) {
	restCfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("loading kubeconfig: %w", err)
	}
	ctrl, err := client.New(restCfg, client.Options{})
	if err != nil {
		return nil, fmt.Errorf("building controller-runtime client: %w", err)
	}
	kube, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("building clientset: %w", err)
	}
	return &Clients{Ctrl: ctrl, Kube: kube}, nil
}
