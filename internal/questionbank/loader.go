// Package questionbank loads and validates the question set and grading
// scale from JSON files. Loading is fail-fast: a bank that does not satisfy
// every structural rule is rejected at startup rather than surfacing as a
// broken test mid-attempt.
package questionbank

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/JaredJameson/TESTHUB/internal/models"
)

// ConfigError marks an invalid bank or scale file. Startup treats it as
// fatal.
type ConfigError struct {
	File   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration in %s: %s", e.File, e.Reason)
}

func configErr(file, format string, args ...any) error {
	return &ConfigError{File: file, Reason: fmt.Sprintf(format, args...)}
}

// Loader reads bank and scale files. Safe for concurrent use.
type Loader struct {
	validate *validator.Validate
}

func NewLoader() *Loader {
	return &Loader{validate: validator.New()}
}

// LoadBank reads, parses and validates a question bank file. The returned
// bank is immutable for the life of the process. Rules enforced:
//   - at least one question, ids unique and exactly 1..N
//   - options carry exactly the keys a, b, c, d with non-empty text
//   - correct_answer is one of the option keys
//   - categories, if absent, are derived from the questions
func (l *Loader) LoadBank(path string) (*models.QuestionBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question bank: %w", err)
	}

	var bank models.QuestionBank
	if err := json.Unmarshal(data, &bank); err != nil {
		return nil, configErr(path, "malformed JSON: %v", err)
	}
	if err := l.validate.Struct(&bank); err != nil {
		return nil, configErr(path, "schema validation failed: %v", err)
	}

	seen := make(map[int]bool, len(bank.Questions))
	for i := range bank.Questions {
		q := &bank.Questions[i]
		if seen[q.ID] {
			return nil, configErr(path, "duplicate question id %d", q.ID)
		}
		seen[q.ID] = true

		if err := validateOptions(q); err != nil {
			return nil, configErr(path, "question %d: %v", q.ID, err)
		}
	}
	for id := 1; id <= len(bank.Questions); id++ {
		if !seen[id] {
			return nil, configErr(path, "question ids must cover 1..%d, missing %d",
				len(bank.Questions), id)
		}
	}

	if len(bank.Categories) == 0 {
		bank.Categories = deriveCategories(bank.Questions)
	}

	return &bank, nil
}

// LoadScale reads, parses and validates a grading scale file. Entries are
// returned sorted by descending MinPercentage, and the lowest entry must sit
// at 0 so Lookup is total over [0,100].
func (l *Loader) LoadScale(path string) (*models.GradingScale, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading grading scale: %w", err)
	}

	var scale models.GradingScale
	if err := json.Unmarshal(data, &scale); err != nil {
		return nil, configErr(path, "malformed JSON: %v", err)
	}
	if err := l.validate.Struct(&scale); err != nil {
		return nil, configErr(path, "schema validation failed: %v", err)
	}

	sort.SliceStable(scale.Entries, func(i, j int) bool {
		return scale.Entries[i].MinPercentage > scale.Entries[j].MinPercentage
	})

	for i := 1; i < len(scale.Entries); i++ {
		if scale.Entries[i].MinPercentage == scale.Entries[i-1].MinPercentage {
			return nil, configErr(path, "duplicate min_percentage %.2f",
				scale.Entries[i].MinPercentage)
		}
	}
	if floor := scale.Entries[len(scale.Entries)-1].MinPercentage; floor != 0 {
		return nil, configErr(path, "lowest grade band starts at %.2f, must start at 0", floor)
	}

	return &scale, nil
}

func validateOptions(q *models.Question) error {
	if len(q.Options) != len(models.ChoiceKeys) {
		return fmt.Errorf("expected %d options, got %d", len(models.ChoiceKeys), len(q.Options))
	}
	for _, key := range models.ChoiceKeys {
		text, ok := q.Options[key]
		if !ok {
			return fmt.Errorf("missing option %q", key)
		}
		if text == "" {
			return fmt.Errorf("option %q has empty text", key)
		}
	}
	if _, ok := q.Options[q.CorrectAnswer]; !ok {
		return fmt.Errorf("correct_answer %q is not an option", q.CorrectAnswer)
	}
	return nil
}

func deriveCategories(questions []models.Question) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range questions {
		if c := questions[i].Category; !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
