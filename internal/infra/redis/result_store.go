package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"diagnostic-lead-service/internal/domain"
)

// ResultStore writes completed results under <quiz>_diagnostic_result:<session>.
type ResultStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultStore(client *redis.Client, ttl time.Duration) *ResultStore {
	return &ResultStore{client: client, ttl: ttl}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.StoredResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return s.client.Set(ctx, Key(result.QuizID, result.ID), data, s.ttl).Err()
}

// Key is the Redis key of a stored result.
func Key(quizID, sessionID string) string {
	return domain.ResultKey(quizID) + ":" + sessionID
}
