package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coordinator/internal/notify"
	"github.com/jonathan/interview-coordinator/internal/types"
)

// ErrForbiddenTransition indicates a (role, from, to) triple outside the
// transition table. The request's stored status is left unchanged.
type ErrForbiddenTransition struct {
	Role types.Role
	From Status
	To   Status
}

func (e *ErrForbiddenTransition) Error() string {
	return fmt.Sprintf("role %s may not transition %s -> %s", e.Role, e.From, e.To)
}

// ErrRecordNotFound indicates the request does not exist.
type ErrRecordNotFound struct {
	ID uuid.UUID
}

func (e *ErrRecordNotFound) Error() string {
	return fmt.Sprintf("interview request not found: %s", e.ID)
}

// ErrInvalidCompletion indicates a completed transition missing its
// finalized score and report, or carrying values out of range.
type ErrInvalidCompletion struct {
	Reason string
}

func (e *ErrInvalidCompletion) Error() string {
	return fmt.Sprintf("invalid completion payload: %s", e.Reason)
}

// staffTargets is the admin/maintainer transition table.
var staffTargets = map[Status][]Status{
	StatusPending:   {StatusReviewing, StatusApproved, StatusCanceled},
	StatusReviewing: {StatusApproved, StatusCanceled, StatusPending},
	StatusApproved:  {StatusCompleted, StatusCanceled, StatusPending, StatusReviewing},
}

// interviewerTargets is the interviewer transition table. Interviewers only
// ever act on approved requests they can see.
var interviewerTargets = map[Status][]Status{
	StatusApproved: {StatusCompleted, StatusCanceled},
}

// Decide validates a transition against the role-gated table. It is pure:
// no store access, no side effects.
func Decide(role types.Role, from, to Status) error {
	var table map[Status][]Status
	switch {
	case role.IsStaff():
		table = staffTargets
	case role == types.RoleInterviewer:
		table = interviewerTargets
	default:
		return &ErrForbiddenTransition{Role: role, From: from, To: to}
	}

	for _, allowed := range table[from] {
		if allowed == to {
			return nil
		}
	}
	return &ErrForbiddenTransition{Role: role, From: from, To: to}
}

// Completion carries the finalized assessment output that must accompany a
// completed transition.
type Completion struct {
	FinalScore    int
	Report        string
	InterviewerID uuid.UUID
	CompletedAt   time.Time
}

// Validate checks the completion payload bounds.
func (c *Completion) Validate() error {
	if c.FinalScore < 0 || c.FinalScore > 100 {
		return &ErrInvalidCompletion{Reason: fmt.Sprintf("final score %d out of range [0,100]", c.FinalScore)}
	}
	if c.Report == "" {
		return &ErrInvalidCompletion{Reason: "report text is empty"}
	}
	return nil
}

// Store is the persistence surface the machine drives. UpdateStatus and
// Complete must apply the version check atomically and surface a conflict
// error when the record moved underneath the caller.
type Store interface {
	GetRequest(ctx context.Context, id uuid.UUID) (*Record, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to Status, version int64) error
	CompleteRequest(ctx context.Context, id uuid.UUID, version int64, completion Completion) error
}

// Machine applies role-gated transitions to persisted requests and fires
// the post-commit notification.
type Machine struct {
	store    Store
	notifier notify.Notifier
	log      *zap.Logger
}

// NewMachine creates a Machine. The notifier may be nil when notification
// delivery is not configured.
func NewMachine(store Store, notifier notify.Notifier, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{store: store, notifier: notifier, log: log}
}

// Transition validates and applies a status change. A completed target
// requires a Completion; for every other target it must be nil-safe ignored.
// On success the new record is returned and notification is dispatched
// fire-and-forget: a delivery failure never rolls the transition back.
func (m *Machine) Transition(ctx context.Context, actor types.Actor, id uuid.UUID, to Status, completion *Completion) (*Record, error) {
	record, err := m.store.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	if record == nil {
		return nil, &ErrRecordNotFound{ID: id}
	}

	if err := Decide(actor.Role, record.Status, to); err != nil {
		return nil, err
	}

	if to == StatusCompleted {
		if completion == nil {
			return nil, &ErrInvalidCompletion{Reason: "completed transition requires final score and report"}
		}
		if err := completion.Validate(); err != nil {
			return nil, err
		}
		if err := m.store.CompleteRequest(ctx, id, record.Version, *completion); err != nil {
			return nil, err
		}
	} else {
		if err := m.store.UpdateStatus(ctx, id, to, record.Version); err != nil {
			return nil, err
		}
	}

	updated, err := m.store.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload request: %w", err)
	}

	m.log.Info("request transitioned",
		zap.String("request_id", id.String()),
		zap.String("from", string(record.Status)),
		zap.String("to", string(to)),
		zap.String("role", string(actor.Role)),
	)

	m.dispatchNotification(record, to)
	return updated, nil
}

// dispatchNotification sends the status-change notification without
// blocking or failing the committed transition.
func (m *Machine) dispatchNotification(record *Record, to Status) {
	if m.notifier == nil || record.CandidateEmail == "" {
		return
	}

	notification := notify.Notification{
		RecipientEmail: record.CandidateEmail,
		RequestID:      record.ID,
		StatusLabel:    string(to),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.notifier.Notify(ctx, notification); err != nil {
			m.log.Warn("notification delivery failed",
				zap.String("request_id", record.ID.String()),
				zap.Error(err),
			)
		}
	}()
}
