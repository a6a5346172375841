// Package rubric provides the scoring rubric template registry and the
// weighted total-score calculator used by assessment sessions.
package rubric

import (
	"fmt"

	"github.com/jonathan/interview-coordinator/internal/types"
)

// DefaultScore is the neutral ordinal score an item carries until the
// evaluator explicitly sets one.
const DefaultScore = 3

// ScoringItem is a single skill rated on the 1-5 ordinal scale.
type ScoringItem struct {
	Skill string `json:"skill"`
	Score int    `json:"score"`
	Notes string `json:"notes"`
}

// ScoringSection groups related skills under one weighted section.
// Weight is the percentage contribution of the section to the total score.
type ScoringSection struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Weight int           `json:"weight"`
	Items  []ScoringItem `json:"items"`
}

// Template is the immutable scoring blueprint for one (field, level) pair.
// Registry consumers must Clone before mutating.
type Template struct {
	Field    types.Field      `json:"field"`
	Level    types.Level      `json:"level"`
	Sections []ScoringSection `json:"sections"`
}

// Clone returns a deep copy of the template. Edits to the copy never reach
// the registry's shared instance.
func (t *Template) Clone() *Template {
	out := &Template{
		Field:    t.Field,
		Level:    t.Level,
		Sections: make([]ScoringSection, len(t.Sections)),
	}
	for i, sec := range t.Sections {
		items := make([]ScoringItem, len(sec.Items))
		copy(items, sec.Items)
		out.Sections[i] = ScoringSection{
			ID:     sec.ID,
			Title:  sec.Title,
			Weight: sec.Weight,
			Items:  items,
		}
	}
	return out
}

// ErrInvalidTemplate reports a template that failed load-time validation.
type ErrInvalidTemplate struct {
	Field  types.Field
	Level  types.Level
	Reason string
}

func (e *ErrInvalidTemplate) Error() string {
	return fmt.Sprintf("invalid template %s/%s: %s", e.Field, e.Level, e.Reason)
}

// Validate checks the load-time invariants: section weights sum to 100, no
// section is empty, section IDs are unique within the template, and every
// item score sits in [1,5]. The calculator itself tolerates violations; the
// registry fails fast on them instead.
func (t *Template) Validate() error {
	if len(t.Sections) == 0 {
		return &ErrInvalidTemplate{Field: t.Field, Level: t.Level, Reason: "no sections"}
	}

	weightSum := 0
	seen := make(map[string]bool, len(t.Sections))
	for _, sec := range t.Sections {
		if sec.ID == "" {
			return &ErrInvalidTemplate{Field: t.Field, Level: t.Level, Reason: "section with empty id"}
		}
		if seen[sec.ID] {
			return &ErrInvalidTemplate{Field: t.Field, Level: t.Level, Reason: fmt.Sprintf("duplicate section id %q", sec.ID)}
		}
		seen[sec.ID] = true

		if sec.Weight < 0 || sec.Weight > 100 {
			return &ErrInvalidTemplate{Field: t.Field, Level: t.Level, Reason: fmt.Sprintf("section %q weight %d out of range", sec.ID, sec.Weight)}
		}
		if len(sec.Items) == 0 {
			return &ErrInvalidTemplate{Field: t.Field, Level: t.Level, Reason: fmt.Sprintf("section %q has no items", sec.ID)}
		}
		for _, item := range sec.Items {
			if item.Score < MinScore || item.Score > MaxScore {
				return &ErrInvalidTemplate{Field: t.Field, Level: t.Level, Reason: fmt.Sprintf("item %q default score %d out of range", item.Skill, item.Score)}
			}
		}
		weightSum += sec.Weight
	}

	if weightSum != 100 {
		return &ErrInvalidTemplate{Field: t.Field, Level: t.Level, Reason: fmt.Sprintf("section weights sum to %d, want 100", weightSum)}
	}
	return nil
}
