package assessment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coordinator/internal/rubric"
	"github.com/jonathan/interview-coordinator/internal/types"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

// fakeGateway is a controllable Gateway for session tests.
type fakeGateway struct {
	mu          sync.Mutex
	note        string
	report      string
	err         error
	block       chan struct{} // when set, SuggestNote blocks until closed
	suggestCall int
}

func (f *fakeGateway) SuggestNote(ctx context.Context, skill string, score int, level string) (string, error) {
	f.mu.Lock()
	f.suggestCall++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.note, nil
}

func (f *fakeGateway) SynthesizeReport(_ context.Context, _, _, _ string, _ []rubric.ScoringSection) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.report, nil
}

func testTemplate() *rubric.Template {
	return &rubric.Template{
		Field: types.FieldBackend,
		Level: types.LevelJunior,
		Sections: []rubric.ScoringSection{
			{ID: "a", Title: "A", Weight: 60, Items: []rubric.ScoringItem{
				{Skill: "x", Score: rubric.DefaultScore},
				{Skill: "y", Score: rubric.DefaultScore},
			}},
			{ID: "b", Title: "B", Weight: 40, Items: []rubric.ScoringItem{
				{Skill: "z", Score: rubric.DefaultScore},
			}},
		},
	}
}

func newTestSession(gw Gateway) *Session {
	interviewer := types.Actor{ID: uuid.New(), Name: "Sam", Role: types.RoleInterviewer, AssignedField: "BE"}
	return NewSession(uuid.New(), interviewer, "Ada", testTemplate(), gw)
}

func TestNewSession_ClonesTemplate(t *testing.T) {
	tmpl := testTemplate()
	tmpl.Sections[0].Items[0].Notes = "registry noise"
	s := NewSession(uuid.New(), types.Actor{ID: uuid.New()}, "Ada", tmpl, &fakeGateway{})

	require.NoError(t, s.SetScore(0, 0, 5))
	require.NoError(t, s.SetNote(0, 0, "session note"))

	// The source template is untouched by session edits.
	assert.Equal(t, rubric.DefaultScore, tmpl.Sections[0].Items[0].Score)
	assert.Equal(t, "registry noise", tmpl.Sections[0].Items[0].Notes)

	// Session notes start empty regardless of template content.
	assert.Equal(t, PhaseDrafting, s.Phase())
	assert.Equal(t, 0, s.SectionIndex())
}

func TestSetScore_RejectsOutOfRange(t *testing.T) {
	s := newTestSession(&fakeGateway{})

	for _, score := range []int{0, 6, -1, 100} {
		err := s.SetScore(0, 0, score)
		var invalid *ErrInvalidScore
		require.ErrorAs(t, err, &invalid, "score %d must be rejected", score)
	}

	// Not clamped: the item still carries its previous value.
	assert.Equal(t, rubric.DefaultScore, s.Sections()[0].Items[0].Score)
}

func TestSetScore_BoundsChecked(t *testing.T) {
	s := newTestSession(&fakeGateway{})

	var secErr *ErrSectionOutOfRange
	require.ErrorAs(t, s.SetScore(5, 0, 3), &secErr)

	var itemErr *ErrItemOutOfRange
	require.ErrorAs(t, s.SetScore(0, 9, 3), &itemErr)
}

func TestAdvanceRetreat_BoundariesError(t *testing.T) {
	s := newTestSession(&fakeGateway{})

	var oor *ErrSectionOutOfRange
	require.ErrorAs(t, s.RetreatSection(), &oor)

	require.NoError(t, s.AdvanceSection())
	assert.Equal(t, 1, s.SectionIndex())

	require.ErrorAs(t, s.AdvanceSection(), &oor)
	assert.Equal(t, 1, s.SectionIndex())

	require.NoError(t, s.RetreatSection())
	assert.Equal(t, 0, s.SectionIndex())
}

func TestRequestAINote_OverwritesOnSuccess(t *testing.T) {
	gw := &fakeGateway{note: "drafted note"}
	s := newTestSession(gw)
	require.NoError(t, s.SetNote(0, 0, "human note"))

	require.NoError(t, s.RequestAINote(context.Background(), 0, 0))
	assert.Equal(t, "drafted note", s.Sections()[0].Items[0].Notes)
	assert.Equal(t, NoteIdle, s.NoteState(0, 0))
}

func TestRequestAINote_FailureLeavesNoteUntouched(t *testing.T) {
	gw := &fakeGateway{err: errors.New("transport down")}
	s := newTestSession(gw)
	require.NoError(t, s.SetNote(0, 0, "human note"))

	err := s.RequestAINote(context.Background(), 0, 0)
	require.Error(t, err)

	// The prior note survives and the failure is visible, not disguised as
	// note text.
	assert.Equal(t, "human note", s.Sections()[0].Items[0].Notes)
	assert.Equal(t, NoteFailed, s.NoteState(0, 0))
}

func TestRequestAINote_SecondConcurrentCallRejected(t *testing.T) {
	block := make(chan struct{})
	gw := &fakeGateway{note: "ok", block: block}
	s := newTestSession(gw)

	done := make(chan error, 1)
	go func() { done <- s.RequestAINote(context.Background(), 0, 0) }()

	// Wait for the first call to be registered as pending.
	require.Eventually(t, func() bool {
		return s.NoteState(0, 0) == NotePending
	}, waitFor, tick)

	err := s.RequestAINote(context.Background(), 0, 0)
	var pending *ErrSuggestionPending
	require.ErrorAs(t, err, &pending)

	close(block)
	require.NoError(t, <-done)
	assert.Equal(t, NoteIdle, s.NoteState(0, 0))
}

func TestSuggestAllNotes_FillsCurrentSection(t *testing.T) {
	gw := &fakeGateway{note: "suggested"}
	s := newTestSession(gw)

	require.NoError(t, s.SuggestAllNotes(context.Background()))
	sections := s.Sections()
	assert.Equal(t, "suggested", sections[0].Items[0].Notes)
	assert.Equal(t, "suggested", sections[0].Items[1].Notes)
	// Other sections untouched.
	assert.Empty(t, sections[1].Items[0].Notes)
}

func TestSynthesizeReport_RequiresLastSection(t *testing.T) {
	s := newTestSession(&fakeGateway{report: "draft"})

	err := s.SynthesizeReport(context.Background())
	var notLast *ErrNotLastSection
	require.ErrorAs(t, err, &notLast)
	assert.Equal(t, PhaseDrafting, s.Phase())
}

func TestSynthesizeReport_SuccessMovesToReview(t *testing.T) {
	s := newTestSession(&fakeGateway{report: "draft report"})
	require.NoError(t, s.AdvanceSection())

	require.NoError(t, s.SynthesizeReport(context.Background()))
	assert.Equal(t, PhaseReviewingReport, s.Phase())
	assert.Equal(t, "draft report", s.DraftReport())
}

func TestSynthesizeReport_FailureKeepsDrafting(t *testing.T) {
	gw := &fakeGateway{err: errors.New("quota")}
	s := newTestSession(gw)
	require.NoError(t, s.AdvanceSection())

	require.Error(t, s.SynthesizeReport(context.Background()))
	assert.Equal(t, PhaseDrafting, s.Phase())
	assert.Empty(t, s.DraftReport())
}

func TestEditReportText_OnlyInReview(t *testing.T) {
	s := newTestSession(&fakeGateway{report: "draft"})

	var wrongPhase *ErrWrongPhase
	require.ErrorAs(t, s.EditReportText("early"), &wrongPhase)

	require.NoError(t, s.AdvanceSection())
	require.NoError(t, s.SynthesizeReport(context.Background()))
	require.NoError(t, s.EditReportText("edited report"))
	assert.Equal(t, "edited report", s.DraftReport())
}

func TestFinalize_ComputesScoreAndIsTerminal(t *testing.T) {
	s := newTestSession(&fakeGateway{report: "draft"})
	// Section a (60%): scores 5,5 -> 1.0. Section b (40%): score 3 -> 0.6.
	require.NoError(t, s.SetScore(0, 0, 5))
	require.NoError(t, s.SetScore(0, 1, 5))
	require.NoError(t, s.AdvanceSection())
	require.NoError(t, s.SynthesizeReport(context.Background()))
	require.NoError(t, s.EditReportText("final text"))

	outcome, err := s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 84, outcome.FinalScore)
	assert.Equal(t, "final text", outcome.Report)
	assert.Equal(t, PhaseFinalized, s.Phase())

	// Repeat finalize is rejected, not recomputed.
	_, err = s.Finalize()
	var wrongPhase *ErrWrongPhase
	require.ErrorAs(t, err, &wrongPhase)
}

func TestFinalize_RejectedWhileDrafting(t *testing.T) {
	s := newTestSession(&fakeGateway{})
	_, err := s.Finalize()
	var wrongPhase *ErrWrongPhase
	require.ErrorAs(t, err, &wrongPhase)
}

func TestEditsRejectedAfterFinalize(t *testing.T) {
	s := newTestSession(&fakeGateway{report: "draft"})
	require.NoError(t, s.AdvanceSection())
	require.NoError(t, s.SynthesizeReport(context.Background()))
	_, err := s.Finalize()
	require.NoError(t, err)

	var wrongPhase *ErrWrongPhase
	require.ErrorAs(t, s.SetScore(0, 0, 4), &wrongPhase)
	require.ErrorAs(t, s.SetNote(0, 0, "late"), &wrongPhase)
	require.ErrorAs(t, s.RequestAINote(context.Background(), 0, 0), &wrongPhase)
	require.ErrorAs(t, s.AdvanceSection(), &wrongPhase)
	require.ErrorAs(t, s.EditReportText("late"), &wrongPhase)
}
