package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/interview-coordinator/internal/prompts"
	"github.com/jonathan/interview-coordinator/internal/rubric"
)

// GatewayError indicates a transport, quota or auth failure from the AI
// provider. It is recoverable: the caller may retry, and it must never be
// converted into text resembling a real suggestion.
type GatewayError struct {
	Op    string
	Cause error
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ai gateway %s failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("ai gateway %s failed", e.Op)
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// Assistant implements the AI assistance gateway contract: per-item note
// suggestion and full report synthesis.
type Assistant struct {
	client Client
}

// NewAssistant creates an Assistant backed by the given LLM client.
func NewAssistant(client Client) *Assistant {
	return &Assistant{client: client}
}

// SuggestNote drafts a short evaluation note for one skill given its current
// ordinal score and the candidate's level context. Returns a GatewayError on
// any provider failure or empty response.
func (a *Assistant) SuggestNote(ctx context.Context, skill string, score int, levelContext string) (string, error) {
	template := prompts.MustGet("assessment.json", "suggest-note")
	prompt := prompts.Format(template, map[string]string{
		"Skill": skill,
		"Score": fmt.Sprintf("%d", score),
		"Max":   fmt.Sprintf("%d", rubric.MaxScore),
		"Level": levelContext,
	})

	text, err := a.client.GenerateContent(ctx, prompt, TierLite)
	if err != nil {
		return "", &GatewayError{Op: "suggest-note", Cause: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &GatewayError{Op: "suggest-note", Cause: fmt.Errorf("empty response")}
	}
	return text, nil
}

// SynthesizeReport produces the full evaluation report draft from the
// complete scored rubric. Every item's score and evaluator-entered note is
// serialized into the prompt so no input is dropped from the synthesis.
func (a *Assistant) SynthesizeReport(ctx context.Context, candidateName, interviewerName, levelContext string, sections []rubric.ScoringSection) (string, error) {
	template := prompts.MustGet("assessment.json", "synthesize-report")
	prompt := prompts.Format(template, map[string]string{
		"Candidate":   candidateName,
		"Interviewer": interviewerName,
		"Level":       levelContext,
		"Rubric":      RenderRubric(sections),
	})

	text, err := a.client.GenerateContent(ctx, prompt, TierAdvanced)
	if err != nil {
		return "", &GatewayError{Op: "synthesize-report", Cause: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &GatewayError{Op: "synthesize-report", Cause: fmt.Errorf("empty response")}
	}
	return text, nil
}

// RenderRubric serializes scored sections into the plain-text form embedded
// in the synthesis prompt. Every skill, score and note appears verbatim.
func RenderRubric(sections []rubric.ScoringSection) string {
	var sb strings.Builder
	for _, sec := range sections {
		fmt.Fprintf(&sb, "## %s (weight %d%%)\n", sec.Title, sec.Weight)
		for _, item := range sec.Items {
			fmt.Fprintf(&sb, "- %s: %d/%d", item.Skill, item.Score, rubric.MaxScore)
			if item.Notes != "" {
				fmt.Fprintf(&sb, " - %s", item.Notes)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
