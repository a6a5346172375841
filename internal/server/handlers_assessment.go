package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coordinator/internal/assessment"
	"github.com/jonathan/interview-coordinator/internal/lifecycle"
	"github.com/jonathan/interview-coordinator/internal/rubric"
	"github.com/jonathan/interview-coordinator/internal/types"
)

// ---------------------------------------------------------------------
// Assessment Session Handlers
// ---------------------------------------------------------------------

// sessionView is the JSON shape of an assessment session.
type sessionView struct {
	RequestID     uuid.UUID               `json:"request_id"`
	CandidateName string                  `json:"candidate_name"`
	Interviewer   string                  `json:"interviewer"`
	Phase         assessment.Phase        `json:"phase"`
	SectionIndex  int                     `json:"section_index"`
	SectionCount  int                     `json:"section_count"`
	Sections      []rubric.ScoringSection `json:"sections"`
	DraftReport   string                  `json:"draft_report,omitempty"`
}

func viewOf(sess *assessment.Session) sessionView {
	return sessionView{
		RequestID:     sess.RequestID,
		CandidateName: sess.CandidateName,
		Interviewer:   sess.Interviewer.Name,
		Phase:         sess.Phase(),
		SectionIndex:  sess.SectionIndex(),
		SectionCount:  sess.SectionCount(),
		Sections:      sess.Sections(),
		DraftReport:   sess.DraftReport(),
	}
}

// sessionForWrite loads the session for a mutating operation. Only the
// owning interviewer may edit; staff may read but not write.
func (s *Server) sessionForWrite(w http.ResponseWriter, r *http.Request, actor types.Actor) (*assessment.Session, uuid.UUID, bool) {
	id, ok := s.requestIDFromPath(w, r)
	if !ok {
		return nil, uuid.Nil, false
	}

	sess, found := s.sessions.Get(id)
	if !found {
		s.errorResponse(w, http.StatusNotFound, "No assessment session for request")
		return nil, uuid.Nil, false
	}
	if sess.Interviewer.ID != actor.ID {
		s.errorResponse(w, http.StatusForbidden, "Session belongs to another interviewer")
		return nil, uuid.Nil, false
	}
	return sess, id, true
}

func (s *Server) handleOpenAssessment(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != types.RoleInterviewer && !actor.Role.IsStaff() {
		s.errorResponse(w, http.StatusForbidden, "Only interviewers may open assessments")
		return
	}

	id, ok := s.requestIDFromPath(w, r)
	if !ok {
		return
	}
	record, ok := s.visibleRequest(w, r, actor, id)
	if !ok {
		return
	}
	if record.Status != lifecycle.StatusApproved {
		s.errorResponse(w, http.StatusConflict, "Request is not approved for assessment")
		return
	}

	tmpl, err := s.registry.Resolve(record.Field, record.Level)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sess, err := s.sessions.Open(id, actor, record.CandidateName, tmpl, s.gateway)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	// Record the assignment. Best effort: the session is already open and a
	// version race here only loses the interviewer column.
	if err := s.store.AssignInterviewer(r.Context(), id, actor.ID, record.Version); err != nil {
		s.log.Warn("failed to record interviewer assignment",
			zap.String("request_id", id.String()), zap.Error(err))
	}

	s.jsonResponse(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	id, ok := s.requestIDFromPath(w, r)
	if !ok {
		return
	}

	sess, found := s.sessions.Get(id)
	if !found {
		s.errorResponse(w, http.StatusNotFound, "No assessment session for request")
		return
	}
	if sess.Interviewer.ID != actor.ID && !actor.Role.IsStaff() {
		s.errorResponse(w, http.StatusNotFound, "No assessment session for request")
		return
	}

	s.jsonResponse(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleDiscardAssessment(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	_, id, ok := s.sessionForWrite(w, r, actor)
	if !ok {
		return
	}

	s.sessions.Discard(id)
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "discarded"})
}

func (s *Server) handleSetScore(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	sess, _, ok := s.sessionForWrite(w, r, actor)
	if !ok {
		return
	}

	var req types.SetScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	if err := sess.SetScore(req.Section, req.Item, req.Score); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleSetNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	sess, _, ok := s.sessionForWrite(w, r, actor)
	if !ok {
		return
	}

	var req types.SetNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	if err := sess.SetNote(req.Section, req.Item, req.Note); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleSuggestNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	sess, _, ok := s.sessionForWrite(w, r, actor)
	if !ok {
		return
	}

	var req types.SuggestNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	if err := sess.RequestAINote(r.Context(), req.Section, req.Item); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleSuggestAllNotes(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	sess, _, ok := s.sessionForWrite(w, r, actor)
	if !ok {
		return
	}

	if err := sess.SuggestAllNotes(r.Context()); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleAdvanceSection(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	sess, _, ok := s.sessionForWrite(w, r, actor)
	if !ok {
		return
	}

	if err := sess.AdvanceSection(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleRetreatSection(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	sess, _, ok := s.sessionForWrite(w, r, actor)
	if !ok {
		return
	}

	if err := sess.RetreatSection(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleSynthesizeReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	sess, _, ok := s.sessionForWrite(w, r, actor)
	if !ok {
		return
	}

	if err := sess.SynthesizeReport(r.Context()); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleEditReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	sess, _, ok := s.sessionForWrite(w, r, actor)
	if !ok {
		return
	}

	var req types.EditReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	if err := sess.EditReportText(req.Text); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, viewOf(sess))
}

// handleFinalize closes the session and applies the completed transition as
// one operation from the caller's perspective. The session outcome is
// computed first; if the lifecycle write is rejected the session stays open
// in review so the interviewer can retry.
func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	sess, id, ok := s.sessionForWrite(w, r, actor)
	if !ok {
		return
	}

	if sess.Phase() != assessment.PhaseReviewingReport {
		s.errorResponse(w, http.StatusConflict, "Session is not in report review")
		return
	}

	// Compute the outcome without finalizing yet; Finalize is terminal and
	// would strand the session if the transition below fails.
	outcome := assessment.Outcome{
		FinalScore: rubric.ComputeTotal(sess.Sections()),
		Report:     sess.DraftReport(),
	}

	completion := &lifecycle.Completion{
		FinalScore:    outcome.FinalScore,
		Report:        outcome.Report,
		InterviewerID: actor.ID,
		CompletedAt:   time.Now().UTC(),
	}

	record, err := s.machine.Transition(r.Context(), actor, id, lifecycle.StatusCompleted, completion)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	if _, err := sess.Finalize(); err != nil {
		// The transition committed; a finalize failure here only means the
		// session already reached a terminal phase concurrently.
		s.log.Warn("session finalize after commit",
			zap.String("request_id", id.String()), zap.Error(err))
	}
	s.sessions.Close(id)

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"request": record,
		"outcome": map[string]any{
			"final_score": outcome.FinalScore,
			"report":      outcome.Report,
		},
	})
}
