/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Provider enumerates the supported LLM backends.
// +kubebuilder:validation:Enum=hosted;local;openai;custom
type Provider string

const (
	ProviderHosted Provider = "hosted"
	ProviderLocal  Provider = "local"
	ProviderOpenAI Provider = "openai"
	ProviderCustom Provider = "custom"
)

// Defaults applied by (*DoctorConfig).Default.
const (
	DefaultTypeWriterSpeed = 20
	DefaultRequestTimeout  = 2 * time.Minute
	DefaultMetricsJob      = "gopherdoctor"
)

// SecretKeySelector points at one key of a Kubernetes Secret.
type SecretKeySelector struct {
	// Namespace of the Secret. Defaults to the current kubeconfig namespace.
	// +optional
	Namespace string `json:"namespace,omitempty"`

	// Name of the Secret.
	// +kubebuilder:validation:Required
	Name string `json:"name"`

	// Key within the Secret's data.
	// +optional
	Key string `json:"key,omitempty"`
}

// ModelSpec selects which LLM backend diagnoses build failures.
type ModelSpec struct {
	// Provider selects the backend.
	// +kubebuilder:validation:Required
	Provider Provider `json:"provider"`

	// APIKey authenticates against hosted and openai providers.
	// +optional
	APIKey string `json:"apiKey,omitempty"`

	// APIKeyFrom reads the API key from a Kubernetes Secret (key defaults to
	// "apiKey") when APIKey is empty.
	// +optional
	APIKeyFrom *SecretKeySelector `json:"apiKeyFrom,omitempty"`

	// Model is the model identifier sent to the provider,
	// e.g. "glm-4" for hosted, "llama3" for local.
	// +optional
	Model string `json:"model,omitempty"`

	// BaseURL overrides the provider endpoint.
	// +optional
	BaseURL string `json:"baseURL,omitempty"`

	// Temperature is the sampling temperature. Defaults to 0.7.
	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=2
	// +optional
	Temperature *float64 `json:"temperature,omitempty"`
}

// GitHubReportSpec posts each successful diagnosis as a comment on a pull
// request or issue.
type GitHubReportSpec struct {
	// Repo is the "owner/repo" of the repository.
	Repo string `json:"repo"`

	// Number is the pull request or issue number to comment on.
	// +kubebuilder:validation:Minimum=1
	Number int `json:"number"`

	// Token is a GitHub token. Falls back to TokenFrom, then $GITHUB_TOKEN.
	// +optional
	Token string `json:"token,omitempty"`

	// TokenFrom reads the token from a Kubernetes Secret (key defaults to "token").
	// +optional
	TokenFrom *SecretKeySelector `json:"tokenFrom,omitempty"`

	// BaseURL targets a GitHub Enterprise API, e.g. "https://ghe.example.com/api/v3/".
	// +optional
	BaseURL string `json:"baseURL,omitempty"`
}

// WebhookReportSpec posts each successful diagnosis to Slack or Discord.
type WebhookReportSpec struct {
	// URL is the incoming webhook URL. discord.com URLs get Discord format.
	// +optional
	URL string `json:"url,omitempty"`

	// URLFrom reads the URL from a Kubernetes Secret (key defaults to "webhookUrl").
	// +optional
	URLFrom *SecretKeySelector `json:"urlFrom,omitempty"`
}

// ReportSpec configures where successful diagnoses are sent besides stdout.
type ReportSpec struct {
	// +optional
	GitHub *GitHubReportSpec `json:"github,omitempty"`
	// +optional
	Webhook *WebhookReportSpec `json:"webhook,omitempty"`
}

// MetricsSpec exports diagnosis metrics for CI dashboards.
type MetricsSpec struct {
	// TextfilePath writes metrics in the node_exporter textfile format.
	// +optional
	TextfilePath string `json:"textfilePath,omitempty"`

	// PushgatewayURL pushes metrics to a Prometheus Pushgateway.
	// +optional
	PushgatewayURL string `json:"pushgatewayURL,omitempty"`

	// Job is the Pushgateway job label. Defaults to "gopherdoctor".
	// +optional
	Job string `json:"job,omitempty"`
}

// DoctorConfig is the configuration file schema for gopher-doctor.
type DoctorConfig struct {
	// APIVersion must be gopherdoctor.dev/v1alpha1 when set.
	APIVersion string `json:"apiVersion,omitempty"`
	// Kind must be DoctorConfig when set.
	Kind string `json:"kind,omitempty"`

	// Enabled turns diagnosis on or off. Defaults to true.
	// +optional
	Enabled *bool `json:"enabled,omitempty"`

	// TypeWriterSpeed is the delay in milliseconds between rendered
	// characters. Defaults to 20.
	// +kubebuilder:validation:Minimum=0
	// +optional
	TypeWriterSpeed *int `json:"typeWriterSpeed,omitempty"`

	// ShowOriginalError echoes the build error when diagnosis fails.
	// Defaults to true.
	// +optional
	ShowOriginalError *bool `json:"showOriginalError,omitempty"`

	// RequestTimeout bounds the model call. Defaults to 2m; 0 disables it.
	// +optional
	RequestTimeout *metav1.Duration `json:"requestTimeout,omitempty"`

	// Model selects the LLM backend. Required.
	Model *ModelSpec `json:"model,omitempty"`

	// +optional
	Report ReportSpec `json:"report,omitempty"`

	// +optional
	Metrics MetricsSpec `json:"metrics,omitempty"`
}

// Default fills unset optional fields.
func (c *DoctorConfig) Default() {
	if c.APIVersion == "" {
		c.APIVersion = GroupVersion.String()
	}
	if c.Kind == "" {
		c.Kind = Kind
	}
	if c.Enabled == nil {
		c.Enabled = ptr(true)
	}
	if c.TypeWriterSpeed == nil {
		c.TypeWriterSpeed = ptr(DefaultTypeWriterSpeed)
	}
	if c.ShowOriginalError == nil {
		c.ShowOriginalError = ptr(true)
	}
	if c.RequestTimeout == nil {
		c.RequestTimeout = &metav1.Duration{Duration: DefaultRequestTimeout}
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = DefaultMetricsJob
	}
}

// IsEnabled reports whether diagnosis runs. Unset means enabled.
func (c *DoctorConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// TypeWriterDelay is the per-character render delay.
func (c *DoctorConfig) TypeWriterDelay() time.Duration {
	if c.TypeWriterSpeed == nil {
		return DefaultTypeWriterSpeed * time.Millisecond
	}
	return time.Duration(*c.TypeWriterSpeed) * time.Millisecond
}

// ShouldShowOriginalError reports whether the fallback path echoes the
// build error. Unset means yes.
func (c *DoctorConfig) ShouldShowOriginalError() bool {
	return c.ShowOriginalError == nil || *c.ShowOriginalError
}

// Timeout is the bound on the model call; zero means none.
func (c *DoctorConfig) Timeout() time.Duration {
	if c.RequestTimeout == nil {
		return DefaultRequestTimeout
	}
	return c.RequestTimeout.Duration
}

func ptr[T any](v T) *T { return &v }
