package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"diagnostic-lead-service/internal/domain"
)

type resultRow struct {
	bun.BaseModel `bun:"table:diagnostic_results"`

	ID             string                              `bun:"id,pk"`
	QuizID         string                              `bun:"quiz_id,notnull"`
	TotalScore     decimal.Decimal                     `bun:"total_score,type:numeric"`
	CategoryScores map[domain.Category]decimal.Decimal `bun:"category_scores,type:jsonb"`
	Answers        map[int]decimal.Decimal             `bun:"answers,type:jsonb"`
	UserInfo       domain.UserInfo                     `bun:"user_info,type:jsonb"`
	Level          string                              `bun:"level"`
	CompletedAt    time.Time                           `bun:"completed_at"`
}

// ResultStore appends completed results to the diagnostic_results table.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.StoredResult) error {
	row := &resultRow{
		ID:             result.ID,
		QuizID:         result.QuizID,
		TotalScore:     result.TotalScore,
		CategoryScores: result.CategoryScores,
		Answers:        result.Answers,
		UserInfo:       result.UserInfo,
		Level:          result.Level,
		CompletedAt:    result.Date,
	}
	// a session completes once; a replayed save keeps the first row
	_, err := s.db.NewInsert().Model(row).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert result %s: %w", result.ID, err)
	}
	return nil
}
