package memory

import (
	"context"
	"sync"

	"diagnostic-lead-service/internal/domain"
)

// ResultStore keeps completed results in memory, keyed like the Redis store.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]domain.StoredResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]domain.StoredResult)}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.StoredResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[domain.ResultKey(result.QuizID)+":"+result.ID] = result
	return nil
}

// Lookup returns the stored result of a session.
func (s *ResultStore) Lookup(quizID, sessionID string) (domain.StoredResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[domain.ResultKey(quizID)+":"+sessionID]
	return r, ok
}
