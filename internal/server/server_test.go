package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coordinator/internal/assessment"
	"github.com/jonathan/interview-coordinator/internal/config"
	"github.com/jonathan/interview-coordinator/internal/db"
	"github.com/jonathan/interview-coordinator/internal/lifecycle"
	"github.com/jonathan/interview-coordinator/internal/rubric"
	"github.com/jonathan/interview-coordinator/internal/types"
)

// ---------------------------------------------------------------------
// Test fixtures shared by the handler tests
// ---------------------------------------------------------------------

// memRequestStore is an in-memory Store with the same version semantics as
// the Postgres implementation.
type memRequestStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*lifecycle.Record
}

func newMemRequestStore() *memRequestStore {
	return &memRequestStore{records: make(map[uuid.UUID]*lifecycle.Record)}
}

func (s *memRequestStore) CreateRequest(_ context.Context, candidateID uuid.UUID, candidateName, candidateEmail, field, level, topic string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	id := uuid.New()
	s.records[id] = &lifecycle.Record{
		ID:             id,
		CandidateID:    candidateID,
		CandidateName:  candidateName,
		CandidateEmail: candidateEmail,
		Field:          field,
		Level:          level,
		Topic:          topic,
		Status:         lifecycle.StatusPending,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return id, nil
}

func (s *memRequestStore) GetRequest(_ context.Context, id uuid.UUID) (*lifecycle.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (s *memRequestStore) ListRequests(_ context.Context, filters db.RequestFilters) ([]*lifecycle.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*lifecycle.Record
	for _, record := range s.records {
		if filters.Status != "" && string(record.Status) != filters.Status {
			continue
		}
		if filters.Field != "" && record.Field != filters.Field {
			continue
		}
		if filters.CandidateID != uuid.Nil && record.CandidateID != filters.CandidateID {
			continue
		}
		clone := *record
		out = append(out, &clone)
	}
	return out, nil
}

func (s *memRequestStore) UpdateStatus(_ context.Context, id uuid.UUID, to lifecycle.Status, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok || record.Version != version {
		return &db.ErrConcurrencyConflict{RequestID: id}
	}
	record.Status = to
	record.Version++
	record.UpdatedAt = time.Now()
	return nil
}

func (s *memRequestStore) CompleteRequest(_ context.Context, id uuid.UUID, version int64, completion lifecycle.Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok || record.Version != version {
		return &db.ErrConcurrencyConflict{RequestID: id}
	}
	record.Status = lifecycle.StatusCompleted
	record.FinalScore = &completion.FinalScore
	record.Report = &completion.Report
	record.InterviewerID = &completion.InterviewerID
	record.CompletedAt = &completion.CompletedAt
	record.Version++
	record.UpdatedAt = time.Now()
	return nil
}

func (s *memRequestStore) AssignInterviewer(_ context.Context, id, interviewerID uuid.UUID, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok || record.Version != version {
		return &db.ErrConcurrencyConflict{RequestID: id}
	}
	record.InterviewerID = &interviewerID
	record.Version++
	record.UpdatedAt = time.Now()
	return nil
}

// fakeGateway returns canned AI output.
type fakeGateway struct {
	mu     sync.Mutex
	note   string
	report string
	err    error
	calls  int
}

func (g *fakeGateway) SuggestNote(_ context.Context, skill string, _ int, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.note + " (" + skill + ")", nil
}

func (g *fakeGateway) SynthesizeReport(_ context.Context, _, _, _ string, _ []rubric.ScoringSection) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.report, nil
}

func newTestServer(t *testing.T) (*Server, *memRequestStore, *fakeGateway) {
	t.Helper()
	t.Setenv("JWT_SECRET", "handler-test-secret")

	jwtCfg, err := config.NewJWTConfig()
	require.NoError(t, err)

	registry, err := rubric.NewRegistry()
	require.NoError(t, err)

	store := newMemRequestStore()
	gateway := &fakeGateway{note: "solid answer", report: "Strong candidate overall."}
	log := zap.NewNop()

	s := &Server{
		store:      store,
		registry:   registry,
		machine:    lifecycle.NewMachine(store, nil, log),
		sessions:   assessment.NewManager(),
		gateway:    gateway,
		jwtService: NewJWTService(jwtCfg),
		log:        log,
	}
	return s, store, gateway
}

func tokenFor(t *testing.T, s *Server, actor types.Actor) string {
	t.Helper()
	token, err := s.jwtService.GenerateToken(actor)
	require.NoError(t, err)
	return token
}

// doJSON performs an authenticated request against the test server and
// decodes the JSON response body.
func doJSON(t *testing.T, ts *httptest.Server, token, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reqBody)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded := map[string]any{}
	if len(raw) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			decoded["raw"] = string(raw)
		}
	} else {
		decoded["raw"] = string(raw)
	}
	return resp.StatusCode, decoded
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func actorOf(role types.Role, assignedField string) types.Actor {
	return types.Actor{
		ID:            uuid.New(),
		Name:          fmt.Sprintf("%s person", role),
		Email:         fmt.Sprintf("%s@example.com", role),
		Role:          role,
		AssignedField: assignedField,
	}
}
