package assessment

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/interview-coordinator/internal/rubric"
	"github.com/jonathan/interview-coordinator/internal/types"
)

// Phase is the two-step lifecycle of an assessment session.
type Phase string

// Session phases. Finalized is terminal.
const (
	PhaseDrafting        Phase = "drafting"
	PhaseReviewingReport Phase = "reviewing-report"
	PhaseFinalized       Phase = "finalized"
)

// Gateway is the AI assistance contract the session depends on. Calls may be
// slow and must honor context cancellation; retries are the gateway's
// concern. Any failure is recoverable for the session.
type Gateway interface {
	SuggestNote(ctx context.Context, skill string, score int, levelContext string) (string, error)
	SynthesizeReport(ctx context.Context, candidateName, interviewerName, levelContext string, sections []rubric.ScoringSection) (string, error)
}

// NoteState reports the AI-suggestion status of one rubric item, so the UI
// layer can distinguish still-pending from failed.
type NoteState string

// Note suggestion states.
const (
	NoteIdle    NoteState = "idle"
	NotePending NoteState = "pending"
	NoteFailed  NoteState = "failed"
)

type itemRef struct {
	section int
	item    int
}

// Outcome is the immutable result of a finalized session, handed to the
// lifecycle state machine for the completed transition.
type Outcome struct {
	FinalScore int
	Report     string
}

// Session holds one in-progress evaluation: a deep-cloned rubric template,
// the evaluator's scores and notes, and the drafting/review phase. One
// session is edited by exactly one interviewer; methods are still
// mutex-guarded because AI calls complete on other goroutines.
type Session struct {
	RequestID     uuid.UUID
	Interviewer   types.Actor
	CandidateName string

	mu           sync.Mutex
	template     *rubric.Template
	sectionIndex int
	phase        Phase
	draftReport  string
	gateway      Gateway
	noteStates   map[itemRef]NoteState
	cancels      map[itemRef]context.CancelFunc
}

// NewSession starts an assessment over a deep clone of the given template.
// Item notes start empty and scores keep the template defaults. The shared
// registry instance is never mutated.
func NewSession(requestID uuid.UUID, interviewer types.Actor, candidateName string, tmpl *rubric.Template, gateway Gateway) *Session {
	clone := tmpl.Clone()
	for i := range clone.Sections {
		for j := range clone.Sections[i].Items {
			clone.Sections[i].Items[j].Notes = ""
		}
	}
	return &Session{
		RequestID:     requestID,
		Interviewer:   interviewer,
		CandidateName: candidateName,
		template:      clone,
		sectionIndex:  0,
		phase:         PhaseDrafting,
		gateway:       gateway,
		noteStates:    make(map[itemRef]NoteState),
		cancels:       make(map[itemRef]context.CancelFunc),
	}
}

// Phase returns the current session phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// SectionIndex returns the current 0-based section cursor.
func (s *Session) SectionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sectionIndex
}

// SectionCount returns the number of sections in the session's template.
func (s *Session) SectionCount() int {
	return len(s.template.Sections)
}

// Sections returns a deep copy of the current scored sections, safe for
// rendering without holding the session lock.
func (s *Session) Sections() []rubric.ScoringSection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.template.Clone().Sections
}

// DraftReport returns the editable report text (empty until synthesis).
func (s *Session) DraftReport() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftReport
}

// NoteState reports the AI-suggestion status for one item.
func (s *Session) NoteState(section, item int) NoteState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.noteStates[itemRef{section: section, item: item}]; ok {
		return state
	}
	return NoteIdle
}

// checkItem validates section/item bounds. Caller must hold s.mu.
func (s *Session) checkItem(section, item int) error {
	if section < 0 || section >= len(s.template.Sections) {
		return &ErrSectionOutOfRange{Index: section, Count: len(s.template.Sections)}
	}
	if item < 0 || item >= len(s.template.Sections[section].Items) {
		return &ErrItemOutOfRange{Section: section, Index: item, Count: len(s.template.Sections[section].Items)}
	}
	return nil
}

// SetScore records an ordinal score for one item. Out-of-range scores are
// rejected with ErrInvalidScore.
func (s *Session) SetScore(section, item, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseDrafting {
		return &ErrWrongPhase{Op: "set-score", Phase: s.phase}
	}
	if err := s.checkItem(section, item); err != nil {
		return err
	}
	if score < rubric.MinScore || score > rubric.MaxScore {
		return &ErrInvalidScore{Score: score}
	}
	s.template.Sections[section].Items[item].Score = score
	return nil
}

// SetNote records free-form note text for one item. Empty text is permitted.
func (s *Session) SetNote(section, item int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseDrafting {
		return &ErrWrongPhase{Op: "set-note", Phase: s.phase}
	}
	if err := s.checkItem(section, item); err != nil {
		return err
	}
	s.template.Sections[section].Items[item].Notes = text
	return nil
}

// RequestAINote asks the gateway to draft a note for one item and, on
// success, overwrites that item's note. On failure the existing note is left
// untouched and the error is surfaced. A second request for an item with one
// already in flight is rejected with ErrSuggestionPending.
func (s *Session) RequestAINote(ctx context.Context, section, item int) error {
	s.mu.Lock()
	if s.phase != PhaseDrafting {
		s.mu.Unlock()
		return &ErrWrongPhase{Op: "request-ai-note", Phase: s.phase}
	}
	if err := s.checkItem(section, item); err != nil {
		s.mu.Unlock()
		return err
	}

	ref := itemRef{section: section, item: item}
	if s.noteStates[ref] == NotePending {
		s.mu.Unlock()
		return &ErrSuggestionPending{Section: section, Item: item}
	}

	callCtx, cancel := context.WithCancel(ctx)
	s.noteStates[ref] = NotePending
	s.cancels[ref] = cancel

	current := s.template.Sections[section].Items[item]
	level := string(s.template.Level)
	s.mu.Unlock()

	note, err := s.gateway.SuggestNote(callCtx, current.Skill, current.Score, level)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()
	delete(s.cancels, ref)

	if err != nil {
		s.noteStates[ref] = NoteFailed
		return err
	}
	delete(s.noteStates, ref)

	// The session may have been discarded or finalized while the call was in
	// flight; do not write into a terminal session.
	if s.phase != PhaseDrafting {
		return &ErrWrongPhase{Op: "request-ai-note", Phase: s.phase}
	}

	s.template.Sections[section].Items[item].Notes = note
	return nil
}

// SuggestAllNotes requests AI notes for every item of the current section in
// parallel. Items with a suggestion already pending are skipped. The first
// gateway error is returned after all calls settle.
func (s *Session) SuggestAllNotes(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseDrafting {
		s.mu.Unlock()
		return &ErrWrongPhase{Op: "suggest-all-notes", Phase: s.phase}
	}
	section := s.sectionIndex
	itemCount := len(s.template.Sections[section].Items)
	s.mu.Unlock()

	g, gCtx := errgroup.WithContext(ctx)
	for item := 0; item < itemCount; item++ {
		item := item
		g.Go(func() error {
			err := s.RequestAINote(gCtx, section, item)
			var pending *ErrSuggestionPending
			if errors.As(err, &pending) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// AdvanceSection moves the cursor to the next section. At the last section
// it returns ErrSectionOutOfRange rather than wrapping.
func (s *Session) AdvanceSection() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseDrafting {
		return &ErrWrongPhase{Op: "advance-section", Phase: s.phase}
	}
	if s.sectionIndex+1 >= len(s.template.Sections) {
		return &ErrSectionOutOfRange{Index: s.sectionIndex + 1, Count: len(s.template.Sections)}
	}
	s.sectionIndex++
	return nil
}

// RetreatSection moves the cursor to the previous section. At the first
// section it returns ErrSectionOutOfRange.
func (s *Session) RetreatSection() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseDrafting {
		return &ErrWrongPhase{Op: "retreat-section", Phase: s.phase}
	}
	if s.sectionIndex == 0 {
		return &ErrSectionOutOfRange{Index: -1, Count: len(s.template.Sections)}
	}
	s.sectionIndex--
	return nil
}

// SynthesizeReport invokes the gateway with the complete scored rubric and
// identity context. Only valid while drafting on the last section. On
// success the phase moves to ReviewingReport and the returned text becomes
// the editable draft; on failure the phase stays Drafting.
func (s *Session) SynthesizeReport(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseDrafting {
		s.mu.Unlock()
		return &ErrWrongPhase{Op: "synthesize-report", Phase: s.phase}
	}
	if s.sectionIndex != len(s.template.Sections)-1 {
		idx, count := s.sectionIndex, len(s.template.Sections)
		s.mu.Unlock()
		return &ErrNotLastSection{Index: idx, Count: count}
	}
	sections := s.template.Clone().Sections
	candidate := s.CandidateName
	interviewer := s.Interviewer.Name
	level := string(s.template.Level)
	s.mu.Unlock()

	report, err := s.gateway.SynthesizeReport(ctx, candidate, interviewer, level, sections)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseDrafting {
		return &ErrWrongPhase{Op: "synthesize-report", Phase: s.phase}
	}
	s.draftReport = report
	s.phase = PhaseReviewingReport
	return nil
}

// EditReportText overwrites the draft report. Only valid in ReviewingReport.
func (s *Session) EditReportText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseReviewingReport {
		return &ErrWrongPhase{Op: "edit-report", Phase: s.phase}
	}
	s.draftReport = text
	return nil
}

// Finalize computes the composite score over the current item scores and
// moves the session to its terminal phase. Repeat calls are rejected, not
// recomputed; this is the single point where the score becomes immutable.
func (s *Session) Finalize() (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseReviewingReport {
		return nil, &ErrWrongPhase{Op: "finalize", Phase: s.phase}
	}

	outcome := &Outcome{
		FinalScore: rubric.ComputeTotal(s.template.Sections),
		Report:     s.draftReport,
	}
	s.phase = PhaseFinalized
	return outcome, nil
}

// discard cancels all in-flight AI calls. Called by the manager when the
// session is abandoned.
func (s *Session) discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ref, cancel := range s.cancels {
		cancel()
		delete(s.cancels, ref)
	}
	s.phase = PhaseFinalized
}
