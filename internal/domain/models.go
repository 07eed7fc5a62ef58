package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category identifies the axis, section or phase a question belongs to.
type Category string

// CategoryInfo pairs a category with its display label.
type CategoryInfo struct {
	ID    Category `json:"id"`
	Label string   `json:"label"`
}

// Option represents a possible answer for a question.
type Option struct {
	Value          decimal.Decimal `json:"value"`
	Label          string          `json:"label"`
	Interpretation string          `json:"interpretation,omitempty"`
}

// Question is a single scored step of a diagnostic.
type Question struct {
	ID       int      `json:"id"`
	Category Category `json:"category"`
	Prompt   string   `json:"prompt"`
	Options  []Option `json:"options"`
}

// MaxValue returns the highest option value of the question.
func (q Question) MaxValue() decimal.Decimal {
	max := decimal.Zero
	for _, opt := range q.Options {
		if opt.Value.GreaterThan(max) {
			max = opt.Value
		}
	}
	return max
}

// Option looks up the option carrying value.
func (q Question) Option(value decimal.Decimal) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Value.Equal(value) {
			return opt, true
		}
	}
	return Option{}, false
}

// Answer is the value a visitor selected for a question.
type Answer struct {
	QuestionID int             `json:"questionId"`
	Value      decimal.Decimal `json:"value"`
}

// Level is a maturity label.
type Level struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// LevelRange maps the closed score interval [Min, Max] to a level.
type LevelRange struct {
	Min   decimal.Decimal `json:"min"`
	Max   decimal.Decimal `json:"max"`
	Level Level           `json:"level"`
}

// Contains reports whether total falls inside the range, both ends included.
func (r LevelRange) Contains(total decimal.Decimal) bool {
	return r.Min.LessThanOrEqual(total) && total.LessThanOrEqual(r.Max)
}

// QuizDefinition is one quiz variant: its question bank and level table.
type QuizDefinition struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	SourceTag  string         `json:"sourceTag"`
	Categories []CategoryInfo `json:"categories"`
	Questions  []Question     `json:"questions"`
	Levels     []LevelRange   `json:"levels"`
	AllowBack  bool           `json:"allowBack"`
}

// QuizSummary is the listing view of a quiz variant.
type QuizSummary struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	QuestionCount int             `json:"questionCount"`
	MaxScore      decimal.Decimal `json:"maxScore"`
	Levels        []LevelRange    `json:"levels"`
}

// UserInfo holds the identity and firmographic fields collected by the intake form.
type UserInfo struct {
	FirstName   string `json:"firstName" validate:"required,max=100"`
	LastName    string `json:"lastName" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,e164"`
	Company     string `json:"company" validate:"required,max=200"`
	Sector      string `json:"sector" validate:"required"`
	Size        string `json:"size" validate:"required"`
	RevenueBand string `json:"revenueBand,omitempty"`
	Role        string `json:"role,omitempty"`
}

// SyncStatus tracks the outcome of a best-effort CRM call.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncOK      SyncStatus = "ok"
	SyncFailed  SyncStatus = "failed"
	SyncSkipped SyncStatus = "skipped"
)

// LeadSync records both CRM calls made on behalf of a session.
type LeadSync struct {
	Create      SyncStatus `json:"create"`
	Update      SyncStatus `json:"update"`
	CreateError string     `json:"createError,omitempty"`
	UpdateError string     `json:"updateError,omitempty"`
}

// CategoryScore is the per-category breakdown shown on the results page.
type CategoryScore struct {
	ID         Category        `json:"id"`
	Label      string          `json:"label"`
	Score      decimal.Decimal `json:"score"`
	Max        decimal.Decimal `json:"max"`
	Percentage int             `json:"percentage"`
}

// ShareLinks are outbound URLs carrying the score and level.
type ShareLinks struct {
	Result   string `json:"result"`
	WhatsApp string `json:"whatsapp"`
	LinkedIn string `json:"linkedin"`
	X        string `json:"x"`
	Email    string `json:"email"`
}

// Result is the outcome of a completed session.
type Result struct {
	SessionID   string          `json:"sessionId"`
	QuizID      string          `json:"quizId"`
	Total       decimal.Decimal `json:"total"`
	MaxScore    decimal.Decimal `json:"maxScore"`
	Percentage  int             `json:"percentage"`
	Categories  []CategoryScore `json:"categories"`
	Level       Level           `json:"level"`
	Answers     []Answer        `json:"answers"`
	UserInfo    UserInfo        `json:"userInfo"`
	CompletedAt time.Time       `json:"completedAt"`
	Share       ShareLinks      `json:"share"`
}

// StoredResult is the document written to the result store.
type StoredResult struct {
	ID             string                       `json:"id"`
	QuizID         string                       `json:"quizId"`
	TotalScore     decimal.Decimal              `json:"totalScore"`
	CategoryScores map[Category]decimal.Decimal `json:"categoryScores"`
	Answers        map[int]decimal.Decimal      `json:"answers"`
	UserInfo       UserInfo                     `json:"userInfo"`
	Level          string                       `json:"level"`
	Date           time.Time                    `json:"date"`
}

// ResultKey is the storage key prefix for a quiz's results.
func ResultKey(quizID string) string {
	return quizID + "_diagnostic_result"
}

// NewStoredResult flattens a result into its persisted form.
func NewStoredResult(r Result) StoredResult {
	categories := make(map[Category]decimal.Decimal, len(r.Categories))
	for _, c := range r.Categories {
		categories[c.ID] = c.Score
	}
	answers := make(map[int]decimal.Decimal, len(r.Answers))
	for _, a := range r.Answers {
		answers[a.QuestionID] = a.Value
	}
	return StoredResult{
		ID:             r.SessionID,
		QuizID:         r.QuizID,
		TotalScore:     r.Total,
		CategoryScores: categories,
		Answers:        answers,
		UserInfo:       r.UserInfo,
		Level:          r.Level.ID,
		Date:           r.CompletedAt,
	}
}
