package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coordinator/internal/db"
	"github.com/jonathan/interview-coordinator/internal/lifecycle"
	"github.com/jonathan/interview-coordinator/internal/server/middleware"
	"github.com/jonathan/interview-coordinator/internal/types"
	"github.com/jonathan/interview-coordinator/internal/visibility"
)

// ---------------------------------------------------------------------
// Interview Request Handlers
// ---------------------------------------------------------------------

// requireActor extracts the authenticated actor, writing a 401 when absent.
func (s *Server) requireActor(w http.ResponseWriter, r *http.Request) (types.Actor, bool) {
	actor, err := middleware.GetActor(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return types.Actor{}, false
	}
	return actor, true
}

// requestIDFromPath parses the {id} path segment.
func (s *Server) requestIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request ID")
		return uuid.Nil, false
	}
	return id, true
}

// visibleRequest loads a record and applies the visibility policy. Records
// the actor may not observe are reported as not found, never as forbidden,
// so their existence does not leak.
func (s *Server) visibleRequest(w http.ResponseWriter, r *http.Request, actor types.Actor, id uuid.UUID) (*lifecycle.Record, bool) {
	record, err := s.store.GetRequest(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return nil, false
	}
	if record == nil || !visibility.Visible(actor, record) {
		s.errorResponse(w, http.StatusNotFound, "Request not found")
		return nil, false
	}
	return record, true
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req types.CreateMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	field, ok := types.ParseField(req.Field)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Unknown field: "+req.Field)
		return
	}
	level, ok := types.ParseLevel(req.Level)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Unknown level: "+req.Level)
		return
	}

	id, err := s.store.CreateRequest(r.Context(), actor.ID, actor.Name, actor.Email,
		string(field), string(level), req.Topic)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	record, err := s.store.GetRequest(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, record)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	filters := db.RequestFilters{
		Status: r.URL.Query().Get("status"),
		Field:  r.URL.Query().Get("field"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			s.errorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filters.Limit = limit
	}

	// Candidates only ever see their own requests; narrow the query up front.
	if actor.Role == types.RoleUser {
		filters.CandidateID = actor.ID
	}

	records, err := s.store.ListRequests(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	visible := visibility.Filter(actor, records)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"requests": visible,
		"count":    len(visible),
	})
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
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

	s.jsonResponse(w, http.StatusOK, record)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	id, ok := s.requestIDFromPath(w, r)
	if !ok {
		return
	}

	var req types.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	if _, ok := s.visibleRequest(w, r, actor, id); !ok {
		return
	}

	target, _ := lifecycle.ParseStatus(req.Target)

	var completion *lifecycle.Completion
	if target == lifecycle.StatusCompleted && req.FinalScore != nil {
		completion = &lifecycle.Completion{
			FinalScore:    *req.FinalScore,
			Report:        req.Report,
			InterviewerID: actor.ID,
			CompletedAt:   time.Now().UTC(),
		}
	}

	updated, err := s.machine.Transition(r.Context(), actor, id, target, completion)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.log.Info("transition applied",
		zap.String("request_id", id.String()),
		zap.String("target", string(target)),
		zap.String("actor", actor.ID.String()))

	s.jsonResponse(w, http.StatusOK, updated)
}
