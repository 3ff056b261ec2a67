package doctor

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/tonyjoanes/gopher-doctor/internal/llm"
)

// ModelFactory builds a ChatModel from its configuration. *llm.Factory is
// the production implementation.
type ModelFactory interface {
	Create(ctx context.Context, cfg llm.ModelConfig) (llm.ChatModel, error)
}

// modelSource builds the plugin's ChatModel on first use and hands the same
// instance out afterwards. Concurrent first calls share one construction.
// A failed construction is not remembered, so the next build tries again.
type modelSource struct {
	factory ModelFactory
	cfg     llm.ModelConfig

	group singleflight.Group
	mu    sync.Mutex
	model llm.ChatModel
}

func (s *modelSource) get(ctx context.Context) (llm.ChatModel, error) {
	if m := s.cached(); m != nil {
		return m, nil
	}
	v, err, _ := s.group.Do("model", func() (any, error) {
		if m := s.cached(); m != nil {
			return m, nil
		}
		m, err := s.factory.Create(ctx, s.cfg)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.model = m
		s.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(llm.ChatModel), nil
}

func (s *modelSource) cached() llm.ChatModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}
