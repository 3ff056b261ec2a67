package llm

// ProviderKind enumerates the supported LLM backends.
type ProviderKind string

const (
	// ProviderHosted is an OpenAI-compatible chat-completions HTTP API.
	ProviderHosted ProviderKind = "hosted"
	// ProviderLocal is a locally-served Ollama instance.
	ProviderLocal ProviderKind = "local"
	// ProviderOpenAI is the OpenAI API through the optional langchaingo
	// integration in package llm/openai.
	ProviderOpenAI ProviderKind = "openai"
	// ProviderCustom is a caller-supplied ChatModel.
	ProviderCustom ProviderKind = "custom"
)

const defaultTemperature = 0.7

// ModelConfig selects and configures exactly one backend. The variants are
// HostedConfig, LocalConfig, OpenAIConfig and CustomConfig; the set is closed.
type ModelConfig interface {
	Kind() ProviderKind
	isModelConfig()
}

// SecretKeyRef points at one key of a Kubernetes Secret.
type SecretKeyRef struct {
	Namespace string
	Name      string
	Key       string
}

// HostedConfig configures the hosted chat-completions adapter.
type HostedConfig struct {
	APIKey string
	// APIKeyFrom is read when APIKey is empty.
	APIKeyFrom *SecretKeyRef
	Model      string
	// BaseURL defaults to DefaultHostedURL.
	BaseURL string
	// Temperature defaults to 0.7 when nil.
	Temperature *float64
}

// LocalConfig configures the local Ollama adapter.
type LocalConfig struct {
	Model string
	// BaseURL defaults to DefaultOllamaURL.
	BaseURL     string
	Temperature *float64
}

// OpenAIConfig configures the optional OpenAI integration.
type OpenAIConfig struct {
	APIKey      string
	APIKeyFrom  *SecretKeyRef
	Model       string
	BaseURL     string
	Temperature *float64
}

// CustomConfig passes a caller-supplied model through untouched.
type CustomConfig struct {
	Instance ChatModel
}

func (HostedConfig) Kind() ProviderKind { return ProviderHosted }
func (LocalConfig) Kind() ProviderKind  { return ProviderLocal }
func (OpenAIConfig) Kind() ProviderKind { return ProviderOpenAI }
func (CustomConfig) Kind() ProviderKind { return ProviderCustom }

func (HostedConfig) isModelConfig() {}
func (LocalConfig) isModelConfig()  {}
func (OpenAIConfig) isModelConfig() {}
func (CustomConfig) isModelConfig() {}

// DefaultModelFor returns a sensible default model name for each provider.
func DefaultModelFor(kind ProviderKind) string {
	switch kind {
	case ProviderHosted:
		return "glm-4"
	case ProviderLocal:
		return "llama3"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	default:
		return ""
	}
}

func temperatureOr(t *float64) float64 {
	if t == nil {
		return defaultTemperature
	}
	return *t
}

func orString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
