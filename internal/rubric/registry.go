package rubric

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/interview-coordinator/internal/types"
)

//go:embed templates/*.json
var templateFiles embed.FS

//go:embed template.schema.json
var templateSchema []byte

// ErrTemplateNotFound indicates no template exists for a (field, level) pair.
// Callers must treat this as fatal to starting an assessment.
type ErrTemplateNotFound struct {
	Field string
	Level string
}

func (e *ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("no rubric template for field %q level %q", e.Field, e.Level)
}

// templateFile is the on-disk shape of one field's template definitions.
type templateFile struct {
	Field  string                `json:"field"`
	Levels map[string]levelEntry `json:"levels"`
}

type levelEntry struct {
	Sections []fileSection `json:"sections"`
}

type fileSection struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Weight int        `json:"weight"`
	Items  []fileItem `json:"items"`
}

type fileItem struct {
	Skill string `json:"skill"`
	Score *int   `json:"score,omitempty"`
}

type templateKey struct {
	field types.Field
	level types.Level
}

// Registry holds the immutable rubric templates, keyed by (field, level).
// Construction validates every embedded template file against the JSON
// Schema and the load-time invariants, failing fast on any violation.
type Registry struct {
	templates map[templateKey]*Template
}

// NewRegistry loads and validates all embedded template files.
func NewRegistry() (*Registry, error) {
	schemaLoader := gojsonschema.NewBytesLoader(templateSchema)

	entries, err := templateFiles.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded templates: %w", err)
	}

	reg := &Registry{templates: make(map[templateKey]*Template)}
	for _, entry := range entries {
		data, err := templateFiles.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read template file %s: %w", entry.Name(), err)
		}

		result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to validate template file %s: %w", entry.Name(), err)
		}
		if !result.Valid() {
			return nil, fmt.Errorf("template file %s failed schema validation: %s", entry.Name(), formatSchemaErrors(result))
		}

		var file templateFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse template file %s: %w", entry.Name(), err)
		}

		if err := reg.addFile(&file); err != nil {
			return nil, fmt.Errorf("template file %s: %w", entry.Name(), err)
		}
	}

	// Every field needs its entry-level template for the fallback rule to
	// stay total.
	for _, field := range reg.fields() {
		if _, ok := reg.templates[templateKey{field: field, level: types.LevelJunior}]; !ok {
			return nil, fmt.Errorf("field %s has no junior template for level fallback", field)
		}
	}

	return reg, nil
}

func (r *Registry) addFile(file *templateFile) error {
	field, ok := types.ParseField(file.Field)
	if !ok {
		return fmt.Errorf("unknown field %q", file.Field)
	}

	for levelName, entry := range file.Levels {
		level, ok := types.ParseLevel(levelName)
		if !ok {
			return fmt.Errorf("unknown level %q", levelName)
		}

		tmpl := &Template{Field: field, Level: level, Sections: make([]ScoringSection, len(entry.Sections))}
		for i, sec := range entry.Sections {
			items := make([]ScoringItem, len(sec.Items))
			for j, item := range sec.Items {
				score := DefaultScore
				if item.Score != nil {
					score = *item.Score
				}
				items[j] = ScoringItem{Skill: item.Skill, Score: score}
			}
			tmpl.Sections[i] = ScoringSection{ID: sec.ID, Title: sec.Title, Weight: sec.Weight, Items: items}
		}

		if err := tmpl.Validate(); err != nil {
			return err
		}

		key := templateKey{field: field, level: level}
		if _, exists := r.templates[key]; exists {
			return fmt.Errorf("duplicate template for %s/%s", field, level)
		}
		r.templates[key] = tmpl
	}
	return nil
}

// Resolve returns the immutable template for a (field, level) pair.
//
// Level fallback is deterministic and documented: an exact match wins;
// otherwise fresh resolves to the field's junior template and lead to the
// field's senior template. An unrecognized level resolves to junior. An
// unknown field never falls back and yields ErrTemplateNotFound.
//
// Callers must Clone the returned template before mutating it.
func (r *Registry) Resolve(fieldName, levelName string) (*Template, error) {
	if fieldName == "" || levelName == "" {
		return nil, &ErrTemplateNotFound{Field: fieldName, Level: levelName}
	}

	field, ok := types.ParseField(fieldName)
	if !ok {
		return nil, &ErrTemplateNotFound{Field: fieldName, Level: levelName}
	}

	if level, ok := types.ParseLevel(levelName); ok {
		if tmpl, exists := r.templates[templateKey{field: field, level: level}]; exists {
			return tmpl, nil
		}
		if level == types.LevelLead {
			if tmpl, exists := r.templates[templateKey{field: field, level: types.LevelSenior}]; exists {
				return tmpl, nil
			}
		}
	}

	// fresh and unrecognized levels share the entry-level template.
	if tmpl, exists := r.templates[templateKey{field: field, level: types.LevelJunior}]; exists {
		return tmpl, nil
	}
	return nil, &ErrTemplateNotFound{Field: fieldName, Level: levelName}
}

// fields returns the distinct fields present in the registry.
func (r *Registry) fields() []types.Field {
	seen := make(map[types.Field]bool)
	var out []types.Field
	for key := range r.templates {
		if !seen[key.field] {
			seen[key.field] = true
			out = append(out, key.field)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Size returns the number of loaded templates.
func (r *Registry) Size() int {
	return len(r.templates)
}

// Keys returns the loaded (field, level) pairs as "Field/level" strings,
// sorted for stable output. Used by the check-templates CLI command.
func (r *Registry) Keys() []string {
	out := make([]string, 0, len(r.templates))
	for key := range r.templates {
		out = append(out, fmt.Sprintf("%s/%s", key.field, key.level))
	}
	sort.Strings(out)
	return out
}

// formatSchemaErrors flattens schema validation errors into one line.
func formatSchemaErrors(result *gojsonschema.Result) string {
	msg := ""
	for i, desc := range result.Errors() {
		if i > 0 {
			msg += "; "
		}
		msg += desc.String()
	}
	return msg
}
