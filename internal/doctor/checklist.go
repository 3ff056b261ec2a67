package doctor

import "github.com/tonyjoanes/gopher-doctor/internal/llm"

// Checklist returns the troubleshooting steps shown when a diagnosis with
// the given provider fails. Unrecognized kinds get a generic list.
func Checklist(kind llm.ProviderKind) []string {
	switch kind {
	case llm.ProviderHosted:
		return []string{
			"  1. Is the API key correct? (model.apiKey or GOPHERDOCTOR_MODEL_API_KEY)",
			"  2. Can this machine reach the API? (open.bigmodel.cn unless baseURL is set)",
			"  3. Is the model name right? (e.g. glm-4, glm-4-flash)",
		}
	case llm.ProviderLocal:
		return []string{
			"  1. Is Ollama running? (run: ollama serve)",
			"  2. Has the model been pulled? (run: ollama pull <model>)",
			"  3. Does baseURL point at it? (default http://localhost:11434)",
		}
	case llm.ProviderOpenAI:
		return []string{
			"  1. Is the API key correct?",
			"  2. Can this machine reach api.openai.com?",
			"  3. Is the OpenAI integration linked? (import " + llm.OpenAIPackage + ")",
		}
	case llm.ProviderCustom:
		return []string{
			"  1. Does your ChatModel's Invoke return a reply?",
			"  2. Does it honour context cancellation?",
		}
	default:
		return []string{
			"  1. Is the model configuration correct?",
			"  2. Is the network reachable?",
		}
	}
}
