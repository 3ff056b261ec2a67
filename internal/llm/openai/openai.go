// Package openai links the OpenAI provider into the doctor. Import it for
// its side effect:
//
//	import _ "github.com/tonyjoanes/gopher-doctor/internal/llm/openai"
//
// Binaries that leave it out report a DependencyMissingError when an
// "openai" model is first used.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/tonyjoanes/gopher-doctor/internal/llm"
)

func init() {
	llm.Register(llm.ProviderOpenAI, New)
}

// Client adapts a langchaingo OpenAI model to llm.ChatModel.
type Client struct {
	model       llms.Model
	temperature float64
}

// New builds a Client from an llm.OpenAIConfig with its key resolved.
func New(_ context.Context, cfg llm.ModelConfig) (llm.ChatModel, error) {
	c, ok := cfg.(llm.OpenAIConfig)
	if !ok {
		return nil, fmt.Errorf("openai: unexpected config %T", cfg)
	}

	opts := []lcopenai.Option{
		lcopenai.WithToken(c.APIKey),
		lcopenai.WithModel(c.Model),
	}
	if c.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(c.BaseURL))
	}
	m, err := lcopenai.New(opts...)
	if err != nil {
		return nil, err
	}

	t := 0.7
	if c.Temperature != nil {
		t = *c.Temperature
	}
	return &Client{model: m, temperature: t}, nil
}

// Invoke sends the conversation through langchaingo's GenerateContent.
func (c *Client) Invoke(ctx context.Context, conv llm.Conversation) (llm.Reply, error) {
	resp, err := c.model.GenerateContent(ctx, toMessageContent(conv), llms.WithTemperature(c.temperature))
	if err != nil {
		return llm.Reply{}, &llm.ProviderError{Provider: llm.ProviderOpenAI, Err: err}
	}
	if len(resp.Choices) == 0 {
		return llm.Reply{}, &llm.ProviderError{Provider: llm.ProviderOpenAI, Err: errors.New("API returned no choices")}
	}
	return llm.Reply{Content: resp.Choices[0].Content}, nil
}

func toMessageContent(conv llm.Conversation) []llms.MessageContent {
	out := make([]llms.MessageContent, len(conv))
	for i, m := range conv {
		out[i] = llms.TextParts(chatMessageType(m.Role), m.Content)
	}
	return out
}

func chatMessageType(r llm.Role) schema.ChatMessageType {
	switch r {
	case llm.RoleInstruction:
		return schema.ChatMessageTypeSystem
	case llm.RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
