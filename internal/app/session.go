package app

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"diagnostic-lead-service/internal/domain"
)

// State is a step of the diagnostic flow.
type State string

const (
	StateIntro      State = "intro"
	StateIntake     State = "intake"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Session is one visitor's pass through a quiz variant. It is a plain value so that
// session stores can serialize it; transitions are the methods below.
type Session struct {
	ID           string           `json:"id"`
	QuizID       string           `json:"quizId"`
	State        State            `json:"state"`
	CurrentIndex int              `json:"currentIndex"`
	Answers      []domain.Answer  `json:"answers"`
	UserInfo     *domain.UserInfo `json:"userInfo,omitempty"`
	LeadID       string           `json:"leadId,omitempty"`
	LeadSync     domain.LeadSync  `json:"leadSync"`
	Result       *domain.Result   `json:"result,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// NewSession creates a session in the intro state.
func NewSession(id, quizID string, now time.Time) *Session {
	return &Session{
		ID:        id,
		QuizID:    quizID,
		State:     StateIntro,
		Answers:   []domain.Answer{},
		LeadSync:  domain.LeadSync{Create: domain.SyncPending, Update: domain.SyncPending},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) transitionError(event string) error {
	return fmt.Errorf("%s from %s: %w", event, s.State, domain.ErrInvalidTransition)
}

// Start moves from intro to the intake form.
func (s *Session) Start(now time.Time) error {
	if s.State != StateIntro {
		return s.transitionError("start")
	}
	s.State = StateIntake
	s.UpdatedAt = now
	return nil
}

// SubmitIntake stores the validated visitor identity and opens the first question.
func (s *Session) SubmitIntake(info domain.UserInfo, now time.Time) error {
	if s.State != StateIntake {
		return s.transitionError("intake")
	}
	s.UserInfo = &info
	s.State = StateInProgress
	s.CurrentIndex = 0
	s.UpdatedAt = now
	return nil
}

// Answer records value for the current question, replacing an earlier pick for the
// same question. The question pointer does not move.
func (s *Session) Answer(def domain.QuizDefinition, value decimal.Decimal, now time.Time) (domain.Option, error) {
	if s.State != StateInProgress {
		return domain.Option{}, s.transitionError("answer")
	}
	q, err := def.Question(s.CurrentIndex)
	if err != nil {
		return domain.Option{}, err
	}
	opt, ok := q.Option(value)
	if !ok {
		return domain.Option{}, fmt.Errorf("question %d value %s: %w", q.ID, value, domain.ErrOptionNotFound)
	}

	answer := domain.Answer{QuestionID: q.ID, Value: opt.Value}
	if i := s.answerIndex(q.ID); i >= 0 {
		s.Answers[i] = answer
	} else {
		s.Answers = append(s.Answers, answer)
	}
	s.UpdatedAt = now
	return opt, nil
}

// Next advances to the following question, or completes the session after the last one.
// It reports whether the session moved; an unanswered current question is a no-op.
func (s *Session) Next(def domain.QuizDefinition, now time.Time) (bool, error) {
	if s.State != StateInProgress {
		return false, s.transitionError("next")
	}
	q, err := def.Question(s.CurrentIndex)
	if err != nil {
		return false, err
	}
	if s.answerIndex(q.ID) < 0 {
		return false, nil
	}

	if s.CurrentIndex+1 < len(def.Questions) {
		s.CurrentIndex++
	} else {
		s.State = StateCompleted
	}
	s.UpdatedAt = now
	return true, nil
}

// Back returns to the previous question on variants that allow it.
func (s *Session) Back(def domain.QuizDefinition, now time.Time) (bool, error) {
	if s.State != StateInProgress || !def.AllowBack {
		return false, s.transitionError("back")
	}
	if s.CurrentIndex == 0 {
		return false, nil
	}
	s.CurrentIndex--
	s.UpdatedAt = now
	return true, nil
}

// CurrentAnswer returns the recorded answer for the current question, if any.
func (s *Session) CurrentAnswer(def domain.QuizDefinition) (domain.Answer, bool) {
	q, err := def.Question(s.CurrentIndex)
	if err != nil {
		return domain.Answer{}, false
	}
	if i := s.answerIndex(q.ID); i >= 0 {
		return s.Answers[i], true
	}
	return domain.Answer{}, false
}

// Progress is the share of answered questions as a whole percent.
func (s *Session) Progress(def domain.QuizDefinition) int {
	if s.State == StateCompleted {
		return 100
	}
	if len(def.Questions) == 0 {
		return 0
	}
	return len(s.Answers) * 100 / len(def.Questions)
}

func (s *Session) answerIndex(questionID int) int {
	for i, a := range s.Answers {
		if a.QuestionID == questionID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy, so stores never share mutable state with callers.
func (s *Session) Clone() *Session {
	c := *s
	c.Answers = append([]domain.Answer(nil), s.Answers...)
	if s.UserInfo != nil {
		info := *s.UserInfo
		c.UserInfo = &info
	}
	if s.Result != nil {
		r := *s.Result
		r.Answers = append([]domain.Answer(nil), s.Result.Answers...)
		r.Categories = append([]domain.CategoryScore(nil), s.Result.Categories...)
		c.Result = &r
	}
	return &c
}
