package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultOllamaURL is where a local Ollama server listens by default.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaClient calls a locally-running Ollama server.
// No API key is required, which suits air-gapped build machines.
type OllamaClient struct {
	Model       string
	BaseURL     string
	Temperature float64
	http        *http.Client
}

// NewOllamaClient constructs an OllamaClient.
// baseURL defaults to "http://localhost:11434" when empty.
func NewOllamaClient(model, baseURL string, temperature float64) *OllamaClient {
	return &OllamaClient{
		Model:       model,
		BaseURL:     strings.TrimRight(orString(baseURL, DefaultOllamaURL), "/"),
		Temperature: temperature,
		http:        &http.Client{},
	}
}

// --- Ollama /api/chat request/response types ---

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"` // same shape as OpenAI
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error"`
}

// Invoke sends the conversation to Ollama's chat endpoint. A server that is
// not running surfaces as a ProviderError like any other failed call.
func (o *OllamaClient) Invoke(ctx context.Context, conv Conversation) (Reply, error) {
	reqBody := ollamaRequest{
		Model:    o.Model,
		Messages: toChatMessages(conv),
		Stream:   false,
		Options: ollamaOptions{
			Temperature: o.Temperature,
		},
	}

	raw, status, err := postJSON(ctx, o.http, o.BaseURL+"/api/chat", reqBody, nil)
	if err != nil {
		return Reply{}, &ProviderError{Provider: ProviderLocal, StatusCode: status, Err: err}
	}

	var apiResp ollamaResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return Reply{}, &ProviderError{Provider: ProviderLocal, Err: fmt.Errorf("decoding ollama response: %w", err)}
	}
	if apiResp.Error != "" {
		return Reply{}, &ProviderError{Provider: ProviderLocal, Err: errors.New("ollama error: " + apiResp.Error)}
	}

	return Reply{Content: apiResp.Message.Content}, nil
}
