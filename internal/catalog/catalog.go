// Package catalog holds the built-in quiz variants. Each variant is a YAML document
// embedded in the binary and decoded into a validated domain.QuizDefinition.
package catalog

import (
	"embed"
	"fmt"
	"path"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"diagnostic-lead-service/internal/domain"
)

//go:embed variants/*.yaml
var variantFS embed.FS

type variantFile struct {
	ID         string                  `yaml:"id"`
	Title      string                  `yaml:"title"`
	SourceTag  string                  `yaml:"source_tag"`
	AllowBack  bool                    `yaml:"allow_back"`
	Scales     map[string][]optionFile `yaml:"scales"`
	Categories []domain.CategoryInfo   `yaml:"categories"`
	Questions  []questionFile          `yaml:"questions"`
	Levels     []levelFile             `yaml:"levels"`
}

type optionFile struct {
	Value          decimal.Decimal `yaml:"value"`
	Label          string          `yaml:"label"`
	Interpretation string          `yaml:"interpretation"`
}

type questionFile struct {
	ID       int          `yaml:"id"`
	Category string       `yaml:"category"`
	Prompt   string       `yaml:"prompt"`
	Scale    string       `yaml:"scale"`
	Options  []optionFile `yaml:"options"`
}

type levelFile struct {
	Min         decimal.Decimal `yaml:"min"`
	Max         decimal.Decimal `yaml:"max"`
	ID          string          `yaml:"id"`
	Label       string          `yaml:"label"`
	Description string          `yaml:"description"`
}

// Load decodes and validates every embedded variant, keyed by quiz ID.
func Load() (map[string]domain.QuizDefinition, error) {
	entries, err := variantFS.ReadDir("variants")
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.QuizDefinition, len(entries))
	for _, entry := range entries {
		data, err := variantFS.ReadFile(path.Join("variants", entry.Name()))
		if err != nil {
			return nil, err
		}
		def, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if _, dup := out[def.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate quiz id %q", entry.Name(), def.ID)
		}
		out[def.ID] = def
	}
	return out, nil
}

// MustLoad is Load for callers that treat a broken catalog as a programming error.
func MustLoad() map[string]domain.QuizDefinition {
	defs, err := Load()
	if err != nil {
		panic(err)
	}
	return defs
}

// IDs returns the sorted quiz IDs of defs.
func IDs(defs map[string]domain.QuizDefinition) []string {
	ids := make([]string, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Parse decodes one YAML variant and validates it.
func Parse(data []byte) (domain.QuizDefinition, error) {
	var file variantFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("decode variant: %w", err)
	}

	def := domain.QuizDefinition{
		ID:         file.ID,
		Title:      file.Title,
		SourceTag:  file.SourceTag,
		AllowBack:  file.AllowBack,
		Categories: file.Categories,
		Questions:  make([]domain.Question, 0, len(file.Questions)),
		Levels:     make([]domain.LevelRange, 0, len(file.Levels)),
	}
	if def.SourceTag == "" {
		def.SourceTag = def.ID
	}

	for _, q := range file.Questions {
		opts := q.Options
		if len(opts) == 0 {
			scale, ok := file.Scales[q.Scale]
			if !ok {
				return domain.QuizDefinition{}, &domain.DefinitionError{
					QuizID: file.ID,
					Reason: fmt.Sprintf("question %d references unknown scale %q", q.ID, q.Scale),
				}
			}
			opts = scale
		}
		def.Questions = append(def.Questions, domain.Question{
			ID:       q.ID,
			Category: domain.Category(q.Category),
			Prompt:   q.Prompt,
			Options:  toOptions(opts),
		})
	}

	for _, l := range file.Levels {
		def.Levels = append(def.Levels, domain.LevelRange{
			Min: l.Min,
			Max: l.Max,
			Level: domain.Level{
				ID:          l.ID,
				Label:       l.Label,
				Description: l.Description,
			},
		})
	}

	if err := def.Validate(); err != nil {
		return domain.QuizDefinition{}, err
	}
	return def, nil
}

func toOptions(in []optionFile) []domain.Option {
	out := make([]domain.Option, 0, len(in))
	for _, o := range in {
		out = append(out, domain.Option{
			Value:          o.Value,
			Label:          o.Label,
			Interpretation: o.Interpretation,
		})
	}
	return out
}
