package llm

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// SecretReader fetches a single string value from a Kubernetes Secret.
type SecretReader interface {
	ReadSecretKey(ctx context.Context, namespace, name, key string) (string, error)
}

// Factory builds the ChatModel for a ModelConfig.
type Factory struct {
	// Secrets resolves APIKeyFrom references. Optional; a config that needs
	// it while it is nil fails with a ConfigurationError.
	Secrets SecretReader
}

// Create builds the appropriate ChatModel for cfg.
//
// For hosted and openai configs the API key is taken from APIKey, or read
// from the Secret named by APIKeyFrom. For local configs no key is needed and
// the BaseURL defaults to localhost:11434. Custom configs are passed through
// after a presence check.
//
// Integrations that are not linked into the binary fail here, on first use,
// with a DependencyMissingError.
func (f *Factory) Create(ctx context.Context, cfg ModelConfig) (ChatModel, error) {
	if cfg == nil {
		return nil, NewConfigurationError(field.Required(field.NewPath("model"), "model configuration is required"))
	}

	switch c := cfg.(type) {
	case HostedConfig:
		apiKey, err := f.apiKey(ctx, field.NewPath("model"), c.APIKey, c.APIKeyFrom)
		if err != nil {
			return nil, err
		}
		return NewHostedClient(orString(c.Model, DefaultModelFor(ProviderHosted)), apiKey, c.BaseURL, temperatureOr(c.Temperature)), nil

	case LocalConfig:
		return NewOllamaClient(orString(c.Model, DefaultModelFor(ProviderLocal)), c.BaseURL, temperatureOr(c.Temperature)), nil

	case OpenAIConfig:
		build, ok := lookup(ProviderOpenAI)
		if !ok {
			return nil, &DependencyMissingError{Kind: ProviderOpenAI, Package: OpenAIPackage}
		}
		apiKey, err := f.apiKey(ctx, field.NewPath("model"), c.APIKey, c.APIKeyFrom)
		if err != nil {
			return nil, err
		}
		t := temperatureOr(c.Temperature)
		resolved := OpenAIConfig{
			APIKey:      apiKey,
			Model:       orString(c.Model, DefaultModelFor(ProviderOpenAI)),
			BaseURL:     c.BaseURL,
			Temperature: &t,
		}
		m, err := build(ctx, resolved)
		if err != nil {
			return nil, fmt.Errorf("building openai model: %w", err)
		}
		return m, nil

	case CustomConfig:
		if c.Instance == nil {
			return nil, NewConfigurationError(field.Required(field.NewPath("model", "instance"), "custom provider needs a model instance"))
		}
		return c.Instance, nil

	default:
		return nil, NewConfigurationError(field.NotSupported(
			field.NewPath("model", "provider"), cfg.Kind(),
			[]string{string(ProviderHosted), string(ProviderLocal), string(ProviderOpenAI), string(ProviderCustom)},
		))
	}
}

// apiKey returns the inline key, or reads it from the referenced Secret.
func (f *Factory) apiKey(ctx context.Context, path *field.Path, inline string, ref *SecretKeyRef) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if ref == nil {
		return "", NewConfigurationError(field.Required(path.Child("apiKey"), "an API key or apiKeyFrom secret reference is required"))
	}
	if f.Secrets == nil {
		return "", NewConfigurationError(field.Invalid(path.Child("apiKeyFrom"), ref.Name, "no Kubernetes secret reader is configured"))
	}
	key := orString(ref.Key, "apiKey")
	v, err := f.Secrets.ReadSecretKey(ctx, ref.Namespace, ref.Name, key)
	if err != nil {
		return "", fmt.Errorf("reading LLM API key secret %q: %w", ref.Name, err)
	}
	return v, nil
}
