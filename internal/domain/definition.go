package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// MaxScore is the highest reachable total: the sum of each question's best option.
func (d QuizDefinition) MaxScore() decimal.Decimal {
	total := decimal.Zero
	for _, q := range d.Questions {
		total = total.Add(q.MaxValue())
	}
	return total
}

// CategoryMax is the highest reachable score within category c.
func (d QuizDefinition) CategoryMax(c Category) decimal.Decimal {
	total := decimal.Zero
	for _, q := range d.Questions {
		if q.Category == c {
			total = total.Add(q.MaxValue())
		}
	}
	return total
}

// CategoryLabel returns the display label of c, or c itself when undeclared.
func (d QuizDefinition) CategoryLabel(c Category) string {
	for _, info := range d.Categories {
		if info.ID == c {
			return info.Label
		}
	}
	return string(c)
}

// Question returns the question at position idx.
func (d QuizDefinition) Question(idx int) (Question, error) {
	if idx < 0 || idx >= len(d.Questions) {
		return Question{}, fmt.Errorf("index %d: %w", idx, ErrQuestionNotFound)
	}
	return d.Questions[idx], nil
}

// Summary returns the listing view of the definition.
func (d QuizDefinition) Summary() QuizSummary {
	return QuizSummary{
		ID:            d.ID,
		Title:         d.Title,
		QuestionCount: len(d.Questions),
		MaxScore:      d.MaxScore(),
		Levels:        d.Levels,
	}
}

// Step is the smallest score increment the variant can produce: the GCD of all option values.
// Two adjacent level ranges are contiguous when the next minimum is the previous maximum plus Step.
func (d QuizDefinition) Step() decimal.Decimal {
	var scale int32
	for _, q := range d.Questions {
		for _, opt := range q.Options {
			if exp := opt.Value.Exponent(); exp < 0 && -exp > scale {
				scale = -exp
			}
		}
	}

	var g int64
	for _, q := range d.Questions {
		for _, opt := range q.Options {
			g = gcd(g, opt.Value.Shift(scale).Abs().IntPart())
		}
	}
	if g == 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.New(g, -scale)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Validate checks the definition is internally consistent. It must pass before a
// definition is served: scoring and classification assume it.
func (d QuizDefinition) Validate() error {
	fail := func(format string, args ...any) error {
		return &DefinitionError{QuizID: d.ID, Reason: fmt.Sprintf(format, args...)}
	}

	if d.ID == "" {
		return fail("missing id")
	}
	if len(d.Questions) == 0 {
		return fail("no questions")
	}

	categories := make(map[Category]bool, len(d.Categories))
	for _, c := range d.Categories {
		if categories[c.ID] {
			return fail("duplicate category %q", c.ID)
		}
		categories[c.ID] = true
	}

	seen := make(map[int]bool, len(d.Questions))
	for _, q := range d.Questions {
		if seen[q.ID] {
			return fail("duplicate question id %d", q.ID)
		}
		seen[q.ID] = true
		if !categories[q.Category] {
			return fail("question %d has undeclared category %q", q.ID, q.Category)
		}
		if len(q.Options) < 2 {
			return fail("question %d needs at least two options", q.ID)
		}
		values := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			if opt.Value.IsNegative() {
				return fail("question %d has negative option value %s", q.ID, opt.Value)
			}
			key := opt.Value.String()
			if values[key] {
				return fail("question %d has duplicate option value %s", q.ID, key)
			}
			values[key] = true
		}
	}

	return d.validateLevels(fail)
}

func (d QuizDefinition) validateLevels(fail func(string, ...any) error) error {
	if len(d.Levels) == 0 {
		return fail("no level ranges")
	}

	ranges := make([]LevelRange, len(d.Levels))
	copy(ranges, d.Levels)
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Min.LessThan(ranges[j].Min)
	})

	step := d.Step()
	ids := make(map[string]bool, len(ranges))
	for i, r := range ranges {
		if r.Level.ID == "" {
			return fail("level range %s-%s has no id", r.Min, r.Max)
		}
		if ids[r.Level.ID] {
			return fail("duplicate level %q", r.Level.ID)
		}
		ids[r.Level.ID] = true
		if r.Min.GreaterThan(r.Max) {
			return fail("level %q has min %s above max %s", r.Level.ID, r.Min, r.Max)
		}
		if i == 0 {
			if !r.Min.IsZero() {
				return fail("levels start at %s, not 0", r.Min)
			}
			continue
		}
		want := ranges[i-1].Max.Add(step)
		if !r.Min.Equal(want) {
			return fail("level %q starts at %s, want %s", r.Level.ID, r.Min, want)
		}
	}

	max := d.MaxScore()
	if last := ranges[len(ranges)-1]; !last.Max.Equal(max) {
		return fail("levels end at %s, max score is %s", last.Max, max)
	}
	return nil
}
