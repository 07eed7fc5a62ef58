package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"diagnostic-lead-service/internal/app"
	"diagnostic-lead-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	if _, err := store.Get(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	session := app.NewSession("s1", "mini", time.Now())
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	// mutating the caller's copy must not leak into the store
	session.Answers = append(session.Answers, domain.Answer{QuestionID: 1, Value: decimal.NewFromInt(1)})

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Answers) != 0 {
		t.Fatalf("expected stored session untouched, got %d answers", len(got.Answers))
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}
}

func TestResultStoreKeysByQuizAndSession(t *testing.T) {
	store := NewResultStore()
	err := store.SaveResult(context.Background(), domain.StoredResult{ID: "s1", QuizID: "mini", Level: "low"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok := store.Lookup("mini", "s1")
	if !ok || got.Level != "low" {
		t.Fatalf("expected stored result, got %+v (ok=%v)", got, ok)
	}
	if _, ok := store.Lookup("other", "s1"); ok {
		t.Fatalf("expected miss for another quiz")
	}
}
