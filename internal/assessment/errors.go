// Package assessment provides the in-memory evaluation session an
// interviewer drives while scoring a candidate against a rubric template.
package assessment

import "fmt"

// ErrInvalidScore indicates a score outside the 1-5 ordinal scale. Scores
// are rejected, never clamped: clamping would silently hide evaluator error.
type ErrInvalidScore struct {
	Score int
}

func (e *ErrInvalidScore) Error() string {
	return fmt.Sprintf("score %d out of range [1,5]", e.Score)
}

// ErrSectionOutOfRange indicates a section index outside the template.
type ErrSectionOutOfRange struct {
	Index int
	Count int
}

func (e *ErrSectionOutOfRange) Error() string {
	return fmt.Sprintf("section index %d out of range [0,%d)", e.Index, e.Count)
}

// ErrItemOutOfRange indicates an item index outside its section.
type ErrItemOutOfRange struct {
	Section int
	Index   int
	Count   int
}

func (e *ErrItemOutOfRange) Error() string {
	return fmt.Sprintf("item index %d out of range [0,%d) in section %d", e.Index, e.Count, e.Section)
}

// ErrWrongPhase indicates an operation invoked outside its valid phase.
type ErrWrongPhase struct {
	Op    string
	Phase Phase
}

func (e *ErrWrongPhase) Error() string {
	return fmt.Sprintf("operation %s not valid in phase %s", e.Op, e.Phase)
}

// ErrSuggestionPending indicates an AI note request for an item that already
// has one in flight. The second request is rejected, not raced.
type ErrSuggestionPending struct {
	Section int
	Item    int
}

func (e *ErrSuggestionPending) Error() string {
	return fmt.Sprintf("ai suggestion already pending for section %d item %d", e.Section, e.Item)
}

// ErrSessionActive indicates a request already has a live session owned by
// another interviewer.
type ErrSessionActive struct {
	Interviewer string
}

func (e *ErrSessionActive) Error() string {
	return fmt.Sprintf("request already has an active assessment session (interviewer %s)", e.Interviewer)
}

// ErrNotLastSection indicates report synthesis requested before the
// evaluator reached the final section.
type ErrNotLastSection struct {
	Index int
	Count int
}

func (e *ErrNotLastSection) Error() string {
	return fmt.Sprintf("report synthesis requires the last section (on %d of %d)", e.Index+1, e.Count)
}
