// Package llm provides the ChatModel abstraction and concrete adapters for
// diagnosing build failures using an AI language model.
//
// Every backend exposes the same single capability: Invoke takes a
// Conversation (system guidance followed by the user query) and returns the
// model's Reply. Adapters own the wire format of their backend; callers never
// see it.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/tonyjoanes/gopher-doctor/internal/failure"
)

// NoContent is shown in place of a reply that carried no usable text.
const NoContent = "The AI returned no usable content."

// ChatModel sends a conversation to an LLM and returns its reply.
type ChatModel interface {
	Invoke(ctx context.Context, conv Conversation) (Reply, error)
}

// ChatModelFunc adapts a plain function to the ChatModel interface.
type ChatModelFunc func(ctx context.Context, conv Conversation) (Reply, error)

// Invoke calls f.
func (f ChatModelFunc) Invoke(ctx context.Context, conv Conversation) (Reply, error) {
	return f(ctx, conv)
}

// Reply is the model's answer to one conversation.
type Reply struct {
	// Content is the raw text returned by the backend, verbatim.
	Content string
}

// Text returns the reply content, or NoContent when it is blank.
func (r Reply) Text() string {
	if strings.TrimSpace(r.Content) == "" {
		return NoContent
	}
	return r.Content
}

// Diagnosis is a completed AI diagnosis, handed to reporters after it has
// been rendered to the console.
type Diagnosis struct {
	// ID correlates log lines, metrics and reports for one attempt.
	ID string
	// Provider is the backend that produced the advice.
	Provider ProviderKind
	// Failure is the build failure that was diagnosed.
	Failure failure.Context
	// Advice is the model's reply text.
	Advice    string
	CreatedAt time.Time
}
