package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coordinator/internal/notify"
	"github.com/jonathan/interview-coordinator/internal/types"
)

// memStore is an in-memory lifecycle.Store for machine tests.
type memStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record
	failOn  string // "update" or "complete" to simulate store failure
}

func newMemStore(records ...*Record) *memStore {
	s := &memStore{records: make(map[uuid.UUID]*Record)}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *memStore) GetRequest(_ context.Context, id uuid.UUID) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id uuid.UUID, to Status, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "update" {
		return errors.New("store failure")
	}
	record := s.records[id]
	if record.Version != version {
		return errors.New("version conflict")
	}
	record.Status = to
	record.Version++
	return nil
}

func (s *memStore) CompleteRequest(_ context.Context, id uuid.UUID, version int64, completion Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "complete" {
		return errors.New("store failure")
	}
	record := s.records[id]
	if record.Version != version {
		return errors.New("version conflict")
	}
	record.Status = StatusCompleted
	record.FinalScore = &completion.FinalScore
	record.Report = &completion.Report
	record.InterviewerID = &completion.InterviewerID
	record.CompletedAt = &completion.CompletedAt
	record.Version++
	return nil
}

// recordingNotifier captures dispatched notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func newRecord(status Status) *Record {
	return &Record{
		ID:             uuid.New(),
		CandidateID:    uuid.New(),
		CandidateName:  "Ada",
		CandidateEmail: "ada@example.com",
		Field:          "Backend",
		Level:          "junior",
		Status:         status,
		Version:        1,
	}
}

func staffActor() types.Actor {
	return types.Actor{ID: uuid.New(), Name: "Root", Role: types.RoleAdmin}
}

func interviewerActor() types.Actor {
	return types.Actor{ID: uuid.New(), Name: "Sam", Role: types.RoleInterviewer, AssignedField: "BE"}
}

func TestDecide_TableEnforcedExhaustively(t *testing.T) {
	allStatuses := []Status{StatusPending, StatusReviewing, StatusApproved, StatusCompleted, StatusCanceled}
	allRoles := []types.Role{types.RoleAdmin, types.RoleMaintainer, types.RoleInterviewer, types.RoleUser}

	allowed := map[types.Role]map[Status][]Status{
		types.RoleAdmin:       staffTargets,
		types.RoleMaintainer:  staffTargets,
		types.RoleInterviewer: interviewerTargets,
		types.RoleUser:        {},
	}

	for _, role := range allRoles {
		for _, from := range allStatuses {
			for _, to := range allStatuses {
				inTable := false
				for _, target := range allowed[role][from] {
					if target == to {
						inTable = true
					}
				}

				err := Decide(role, from, to)
				if inTable {
					assert.NoError(t, err, "%s %s->%s should be allowed", role, from, to)
				} else {
					var forbidden *ErrForbiddenTransition
					assert.ErrorAs(t, err, &forbidden, "%s %s->%s should be forbidden", role, from, to)
				}
			}
		}
	}
}

func TestDecide_TerminalStatesHaveNoExits(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCanceled} {
		for _, to := range []Status{StatusPending, StatusReviewing, StatusApproved, StatusCompleted, StatusCanceled} {
			assert.Error(t, Decide(types.RoleAdmin, from, to))
		}
	}
}

func TestTransition_AdminApprovesThenCompletes(t *testing.T) {
	record := newRecord(StatusPending)
	store := newMemStore(record)
	machine := NewMachine(store, nil, nil)

	updated, err := machine.Transition(context.Background(), staffActor(), record.ID, StatusApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated.Status)

	completion := &Completion{
		FinalScore:    82,
		Report:        "Strong hire.",
		InterviewerID: uuid.New(),
		CompletedAt:   time.Now(),
	}
	updated, err = machine.Transition(context.Background(), staffActor(), record.ID, StatusCompleted, completion)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)
	require.NotNil(t, updated.FinalScore)
	assert.Equal(t, 82, *updated.FinalScore)
	require.NotNil(t, updated.Report)
	assert.Equal(t, "Strong hire.", *updated.Report)
}

func TestTransition_InterviewerCannotApprovePending(t *testing.T) {
	record := newRecord(StatusPending)
	store := newMemStore(record)
	machine := NewMachine(store, nil, nil)

	_, err := machine.Transition(context.Background(), interviewerActor(), record.ID, StatusApproved, nil)
	var forbidden *ErrForbiddenTransition
	require.ErrorAs(t, err, &forbidden)

	// The stored status is unchanged.
	stored, err := store.GetRequest(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestTransition_CompletedRequiresPayload(t *testing.T) {
	record := newRecord(StatusApproved)
	store := newMemStore(record)
	machine := NewMachine(store, nil, nil)

	_, err := machine.Transition(context.Background(), interviewerActor(), record.ID, StatusCompleted, nil)
	var invalid *ErrInvalidCompletion
	require.ErrorAs(t, err, &invalid)

	stored, _ := store.GetRequest(context.Background(), record.ID)
	assert.Equal(t, StatusApproved, stored.Status)
}

func TestTransition_CompletionPayloadValidated(t *testing.T) {
	tests := []struct {
		name       string
		completion Completion
	}{
		{name: "score above range", completion: Completion{FinalScore: 101, Report: "r"}},
		{name: "score below range", completion: Completion{FinalScore: -1, Report: "r"}},
		{name: "empty report", completion: Completion{FinalScore: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := newRecord(StatusApproved)
			machine := NewMachine(newMemStore(record), nil, nil)

			_, err := machine.Transition(context.Background(), interviewerActor(), record.ID, StatusCompleted, &tt.completion)
			var invalid *ErrInvalidCompletion
			require.ErrorAs(t, err, &invalid)
		})
	}
}

func TestTransition_UnknownRecord(t *testing.T) {
	machine := NewMachine(newMemStore(), nil, nil)

	_, err := machine.Transition(context.Background(), staffActor(), uuid.New(), StatusApproved, nil)
	var notFound *ErrRecordNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestTransition_NotificationDispatched(t *testing.T) {
	record := newRecord(StatusPending)
	notifier := &recordingNotifier{}
	machine := NewMachine(newMemStore(record), notifier, nil)

	_, err := machine.Transition(context.Background(), staffActor(), record.ID, StatusReviewing, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return notifier.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, "ada@example.com", notifier.sent[0].RecipientEmail)
	assert.Equal(t, record.ID, notifier.sent[0].RequestID)
	assert.Equal(t, "reviewing", notifier.sent[0].StatusLabel)
}

func TestTransition_NotificationFailureDoesNotRollBack(t *testing.T) {
	record := newRecord(StatusPending)
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	store := newMemStore(record)
	machine := NewMachine(store, notifier, nil)

	updated, err := machine.Transition(context.Background(), staffActor(), record.ID, StatusReviewing, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusReviewing, updated.Status)

	require.Eventually(t, func() bool { return notifier.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	stored, _ := store.GetRequest(context.Background(), record.ID)
	assert.Equal(t, StatusReviewing, stored.Status)
}

func TestTransition_StoreFailureSurfaced(t *testing.T) {
	record := newRecord(StatusPending)
	store := newMemStore(record)
	store.failOn = "update"
	machine := NewMachine(store, nil, nil)

	_, err := machine.Transition(context.Background(), staffActor(), record.ID, StatusReviewing, nil)
	require.Error(t, err)
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusPending, NormalizeStatus(""))
	assert.Equal(t, StatusPending, NormalizeStatus("bogus"))
	assert.Equal(t, StatusApproved, NormalizeStatus("approved"))
	assert.Equal(t, StatusCanceled, NormalizeStatus("canceled"))
}

func TestParseStatus(t *testing.T) {
	status, ok := ParseStatus("reviewing")
	assert.True(t, ok)
	assert.Equal(t, StatusReviewing, status)

	_, ok = ParseStatus("")
	assert.False(t, ok)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCanceled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusApproved.IsTerminal())
}
