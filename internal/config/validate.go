package config

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/tonyjoanes/gopher-doctor/api/v1alpha1"
	"github.com/tonyjoanes/gopher-doctor/internal/llm"
)

var providers = []string{
	string(v1alpha1.ProviderHosted),
	string(v1alpha1.ProviderLocal),
	string(v1alpha1.ProviderOpenAI),
	string(v1alpha1.ProviderCustom),
}

// Validate checks cfg and returns every problem found as a single
// *llm.ConfigurationError, or nil.
func Validate(cfg *v1alpha1.DoctorConfig) error {
	if cfg == nil {
		return llm.NewConfigurationError(field.Required(field.NewPath("model"), "model configuration is required"))
	}

	var errs field.ErrorList
	if cfg.APIVersion != "" && cfg.APIVersion != v1alpha1.GroupVersion.String() {
		errs = append(errs, field.NotSupported(field.NewPath("apiVersion"), cfg.APIVersion, []string{v1alpha1.GroupVersion.String()}))
	}
	if cfg.Kind != "" && cfg.Kind != v1alpha1.Kind {
		errs = append(errs, field.NotSupported(field.NewPath("kind"), cfg.Kind, []string{v1alpha1.Kind}))
	}
	if cfg.TypeWriterSpeed != nil && *cfg.TypeWriterSpeed < 0 {
		errs = append(errs, field.Invalid(field.NewPath("typeWriterSpeed"), *cfg.TypeWriterSpeed, "must be zero or greater"))
	}
	if cfg.RequestTimeout != nil && cfg.RequestTimeout.Duration < 0 {
		errs = append(errs, field.Invalid(field.NewPath("requestTimeout"), cfg.RequestTimeout.Duration.String(), "must be zero or greater"))
	}

	errs = append(errs, validateModel(cfg.Model, field.NewPath("model"))...)
	errs = append(errs, validateReport(&cfg.Report, field.NewPath("report"))...)

	if len(errs) > 0 {
		return &llm.ConfigurationError{Errs: errs}
	}
	return nil
}

func validateModel(m *v1alpha1.ModelSpec, path *field.Path) field.ErrorList {
	if m == nil {
		return field.ErrorList{field.Required(path, "model configuration is required")}
	}

	var errs field.ErrorList
	switch m.Provider {
	case v1alpha1.ProviderHosted, v1alpha1.ProviderOpenAI:
		if m.APIKey == "" && m.APIKeyFrom == nil {
			errs = append(errs, field.Required(path.Child("apiKey"), "an API key or apiKeyFrom secret reference is required"))
		}
		errs = append(errs, validateSecretRef(m.APIKeyFrom, path.Child("apiKeyFrom"))...)
	case v1alpha1.ProviderLocal, v1alpha1.ProviderCustom:
	case "":
		errs = append(errs, field.Required(path.Child("provider"), "one of "+strings.Join(providers, ", ")))
	default:
		errs = append(errs, field.NotSupported(path.Child("provider"), string(m.Provider), providers))
	}

	if m.Temperature != nil && (*m.Temperature < 0 || *m.Temperature > 2) {
		errs = append(errs, field.Invalid(path.Child("temperature"), *m.Temperature, "must be between 0 and 2"))
	}
	return errs
}

func validateReport(r *v1alpha1.ReportSpec, path *field.Path) field.ErrorList {
	var errs field.ErrorList
	if gh := r.GitHub; gh != nil {
		p := path.Child("github")
		if parts := strings.Split(gh.Repo, "/"); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			errs = append(errs, field.Invalid(p.Child("repo"), gh.Repo, `must be "owner/repo"`))
		}
		if gh.Number < 1 {
			errs = append(errs, field.Invalid(p.Child("number"), gh.Number, "must be a pull request or issue number"))
		}
		errs = append(errs, validateSecretRef(gh.TokenFrom, p.Child("tokenFrom"))...)
	}
	if wh := r.Webhook; wh != nil {
		p := path.Child("webhook")
		if wh.URL == "" && wh.URLFrom == nil {
			errs = append(errs, field.Required(p.Child("url"), "a webhook URL or urlFrom secret reference is required"))
		}
		errs = append(errs, validateSecretRef(wh.URLFrom, p.Child("urlFrom"))...)
	}
	return errs
}

func validateSecretRef(ref *v1alpha1.SecretKeySelector, path *field.Path) field.ErrorList {
	if ref == nil || ref.Name != "" {
		return nil
	}
	return field.ErrorList{field.Required(path.Child("name"), "secret name is required")}
}

// ModelConfig converts the validated model spec into the llm.ModelConfig
// variant for its provider. custom is the caller-supplied instance used by
// the "custom" provider.
func ModelConfig(m *v1alpha1.ModelSpec, custom llm.ChatModel) (llm.ModelConfig, error) {
	path := field.NewPath("model")
	if m == nil {
		return nil, llm.NewConfigurationError(field.Required(path, "model configuration is required"))
	}

	switch m.Provider {
	case v1alpha1.ProviderHosted:
		return llm.HostedConfig{
			APIKey:      m.APIKey,
			APIKeyFrom:  secretKeyRef(m.APIKeyFrom),
			Model:       m.Model,
			BaseURL:     m.BaseURL,
			Temperature: m.Temperature,
		}, nil
	case v1alpha1.ProviderLocal:
		return llm.LocalConfig{
			Model:       m.Model,
			BaseURL:     m.BaseURL,
			Temperature: m.Temperature,
		}, nil
	case v1alpha1.ProviderOpenAI:
		return llm.OpenAIConfig{
			APIKey:      m.APIKey,
			APIKeyFrom:  secretKeyRef(m.APIKeyFrom),
			Model:       m.Model,
			BaseURL:     m.BaseURL,
			Temperature: m.Temperature,
		}, nil
	case v1alpha1.ProviderCustom:
		if custom == nil {
			return nil, llm.NewConfigurationError(field.Required(path.Child("instance"), "custom provider needs a model instance"))
		}
		return llm.CustomConfig{Instance: custom}, nil
	default:
		return nil, llm.NewConfigurationError(field.NotSupported(path.Child("provider"), string(m.Provider), providers))
	}
}

func secretKeyRef(s *v1alpha1.SecretKeySelector) *llm.SecretKeyRef {
	if s == nil {
		return nil
	}
	return &llm.SecretKeyRef{Namespace: s.Namespace, Name: s.Name, Key: s.Key}
}
