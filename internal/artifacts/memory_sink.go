package artifacts

import (
	"context"
	"sync"
)

// MemorySink keeps artifacts in memory and is safe for concurrent use.
type MemorySink struct {
	mu    sync.Mutex
	items []Artifact
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Save(ctx context.Context, a Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, a)
	return nil
}

// Items returns a copy of the stored artifacts in save order.
func (s *MemorySink) Items() []Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Artifact(nil), s.items...)
}
