package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultHostedURL is the chat-completions base URL used when none is set.
const DefaultHostedURL = "https://open.bigmodel.cn/api/paas/v4"

// maxErrorBody caps how much of a failed response body ends up in an error.
const maxErrorBody = 2048

// HostedClient calls a hosted, OpenAI-compatible chat-completions API
// (Zhipu GLM, Groq, OpenRouter and friends) with a bearer token.
type HostedClient struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	http        *http.Client
}

// NewHostedClient constructs a HostedClient. baseURL defaults to
// DefaultHostedURL when empty. Timeouts are owned by the caller's context.
func NewHostedClient(model, apiKey, baseURL string, temperature float64) *HostedClient {
	return &HostedClient{
		Model:       model,
		APIKey:      apiKey,
		BaseURL:     strings.TrimRight(orString(baseURL, DefaultHostedURL), "/"),
		Temperature: temperature,
		http:        &http.Client{},
	}
}

// --- OpenAI-compatible request/response types ---

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Invoke sends one non-streaming chat-completion request and returns the
// first choice verbatim. It never retries.
func (h *HostedClient) Invoke(ctx context.Context, conv Conversation) (Reply, error) {
	reqBody := chatCompletionRequest{
		Model:       h.Model,
		Messages:    toChatMessages(conv),
		Temperature: h.Temperature,
		Stream:      false,
	}

	raw, status, err := postJSON(ctx, h.http, h.BaseURL+"/chat/completions", reqBody, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+h.APIKey)
	})
	if err != nil {
		return Reply{}, &ProviderError{Provider: ProviderHosted, StatusCode: status, Err: err}
	}

	var apiResp chatCompletionResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return Reply{}, &ProviderError{Provider: ProviderHosted, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(apiResp.Choices) == 0 {
		return Reply{}, &ProviderError{Provider: ProviderHosted, Err: errors.New("API returned no choices")}
	}

	return Reply{Content: apiResp.Choices[0].Message.Content}, nil
}

// postJSON marshals body, POSTs it to url and returns the raw response body.
// A non-2xx status is an error carrying the status code and the raw body.
func postJSON(
	ctx context.Context,
	c *http.Client,
	url string,
	body any,
	decorate func(*http.Request),
) ([]byte, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if decorate != nil {
		decorate(req)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := strings.TrimSpace(string(raw))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody] + "..."
		}
		return nil, resp.StatusCode, fmt.Errorf("API error (%d): %s", resp.StatusCode, text)
	}
	return raw, resp.StatusCode, nil
}
