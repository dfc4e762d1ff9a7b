// Package memory provides the default process-lifetime checkpoint store: a
// mutex-guarded map with no eviction and no expiry.
package memory

import (
	"context"
	"sync"

	"github.com/contentflow/contentflow/workflow"
)

type Store struct {
	mu     sync.RWMutex
	states map[string]workflow.State
}

func New() *Store {
	return &Store{
		states: map[string]workflow.State{},
	}
}

func (s *Store) Put(ctx context.Context, threadID string, state workflow.State) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[threadID] = state
	return nil
}

func (s *Store) Get(ctx context.Context, threadID string) (workflow.State, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[threadID]
	if !ok {
		return workflow.State{}, workflow.ErrNotFound
	}
	return state, nil
}

func (s *Store) Close() error { return nil }
