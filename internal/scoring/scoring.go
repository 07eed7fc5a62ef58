// Package scoring aggregates answers into scores and maps totals to maturity levels.
// Everything here is pure: callers pass the question bank and level table of the quiz variant.
package scoring

import (
	"github.com/shopspring/decimal"

	"diagnostic-lead-service/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Breakdown is the total and per-category score of an answer set.
type Breakdown struct {
	Total       decimal.Decimal
	PerCategory map[domain.Category]decimal.Decimal
}

// Score sums answer values per category. Answers for unknown questions are ignored and
// only the first answer per question counts. Every category present in questions is
// reported, zero when unanswered.
func Score(answers []domain.Answer, questions []domain.Question) Breakdown {
	byID := make(map[int]domain.Question, len(questions))
	perCategory := make(map[domain.Category]decimal.Decimal)
	for _, q := range questions {
		byID[q.ID] = q
		if _, ok := perCategory[q.Category]; !ok {
			perCategory[q.Category] = decimal.Zero
		}
	}

	counted := make(map[int]bool, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok || counted[a.QuestionID] {
			continue
		}
		counted[a.QuestionID] = true
		perCategory[q.Category] = perCategory[q.Category].Add(a.Value)
	}

	total := decimal.Zero
	for _, v := range perCategory {
		total = total.Add(v)
	}
	return Breakdown{Total: total, PerCategory: perCategory}
}

// Classify returns the level of the first range containing total. Ranges are validated
// contiguous at construction; when none matches the first range is returned.
func Classify(total decimal.Decimal, ranges []domain.LevelRange) domain.Level {
	for _, r := range ranges {
		if r.Contains(total) {
			return r.Level
		}
	}
	if len(ranges) == 0 {
		return domain.Level{}
	}
	return ranges[0].Level
}

// Percentage is total/max as a whole percent, rounded half up. A zero max yields 0.
func Percentage(total, max decimal.Decimal) int {
	if !max.IsPositive() {
		return 0
	}
	return int(total.Mul(hundred).Div(max).Round(0).IntPart())
}

// Categories builds the ordered per-category view of a breakdown using the
// definition's declared category order.
func Categories(def domain.QuizDefinition, b Breakdown) []domain.CategoryScore {
	out := make([]domain.CategoryScore, 0, len(def.Categories))
	for _, info := range def.Categories {
		score := b.PerCategory[info.ID]
		max := def.CategoryMax(info.ID)
		out = append(out, domain.CategoryScore{
			ID:         info.ID,
			Label:      info.Label,
			Score:      score,
			Max:        max,
			Percentage: Percentage(score, max),
		})
	}
	return out
}
