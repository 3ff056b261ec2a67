package llm

import (
	"context"
	"sync"
)

// OpenAIPackage is the import path that links the OpenAI integration.
const OpenAIPackage = "github.com/tonyjoanes/gopher-doctor/internal/llm/openai"

// Builder constructs a ChatModel for an optional integration. The config it
// receives has defaults applied and secrets resolved.
type Builder func(ctx context.Context, cfg ModelConfig) (ChatModel, error)

var (
	registryMu sync.RWMutex
	registry   = map[ProviderKind]Builder{}
)

// Register links an optional integration into the binary. It is meant to be
// called from the integration package's init function; a later call for the
// same kind replaces the earlier one.
func Register(kind ProviderKind, b Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = b
}

// Registered reports whether an integration for kind is linked.
func Registered(kind ProviderKind) bool {
	_, ok := lookup(kind)
	return ok
}

func lookup(kind ProviderKind) (Builder, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := registry[kind]
	return b, ok
}
