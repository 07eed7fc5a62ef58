package crm

import (
	"fmt"
	"strings"

	"diagnostic-lead-service/internal/domain"
)

// Describe renders a completed diagnostic as the plain-text lead description:
// source tag, one qN line per question in bank order, then the totals.
func Describe(def domain.QuizDefinition, result domain.Result) string {
	answers := make(map[int]domain.Answer, len(result.Answers))
	for _, a := range result.Answers {
		answers[a.QuestionID] = a
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", def.SourceTag)
	fmt.Fprintf(&b, "Quiz: %s\n", def.Title)
	for _, q := range def.Questions {
		a, ok := answers[q.ID]
		if !ok {
			fmt.Fprintf(&b, "q%d: -\n", q.ID)
			continue
		}
		if opt, found := q.Option(a.Value); found {
			fmt.Fprintf(&b, "q%d: %s (%s)\n", q.ID, a.Value, opt.Label)
		} else {
			fmt.Fprintf(&b, "q%d: %s\n", q.ID, a.Value)
		}
	}
	for _, c := range result.Categories {
		fmt.Fprintf(&b, "%s: %s/%s\n", c.Label, c.Score, c.Max)
	}
	fmt.Fprintf(&b, "Total score: %s\n", result.Total)
	fmt.Fprintf(&b, "Max score: %s\n", result.MaxScore)
	fmt.Fprintf(&b, "Percentage: %d%%\n", result.Percentage)
	fmt.Fprintf(&b, "Level: %s", result.Level.Label)
	return b.String()
}
