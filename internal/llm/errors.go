package llm

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// ConfigurationError reports a missing or malformed model configuration.
// It is the only error allowed to abort plugin construction.
type ConfigurationError struct {
	Errs field.ErrorList
}

// NewConfigurationError wraps one or more field errors.
func NewConfigurationError(errs ...*field.Error) *ConfigurationError {
	return &ConfigurationError{Errs: errs}
}

func (e *ConfigurationError) Error() string {
	if len(e.Errs) == 0 {
		return "invalid model configuration"
	}
	return "invalid model configuration: " + e.Errs.ToAggregate().Error()
}

// DependencyMissingError reports that the integration for a provider kind
// was not linked into this binary.
type DependencyMissingError struct {
	Kind ProviderKind
	// Package is the import path that registers the integration.
	Package string
}

func (e *DependencyMissingError) Error() string {
	return fmt.Sprintf("provider %q is not available in this build: import %q to enable it", e.Kind, e.Package)
}

// ProviderError reports that a backend call could not produce a reply.
type ProviderError struct {
	Provider ProviderKind
	// StatusCode is the HTTP status of a rejected call, or 0 when the
	// backend never answered.
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
