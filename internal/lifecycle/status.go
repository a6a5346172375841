// Package lifecycle governs the status of a persisted interview request:
// which statuses exist, which actor roles may move a request between them,
// and how a completed evaluation is applied atomically.
package lifecycle

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an interview request.
type Status string

// Request statuses. Completed and canceled are terminal.
const (
	StatusPending   Status = "pending"
	StatusReviewing Status = "reviewing"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// ParseStatus converts a string to a Status. Returns false for unknown
// values; the empty string is not a valid status (see NormalizeStatus).
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusReviewing, StatusApproved, StatusCompleted, StatusCanceled:
		return Status(s), true
	default:
		return "", false
	}
}

// NormalizeStatus maps the stored status value onto the machine's input
// domain. Legacy records persisted without a status are pending. This is the
// single normalization point; call sites never default ad hoc.
func NormalizeStatus(s string) Status {
	if status, ok := ParseStatus(s); ok {
		return status
	}
	return StatusPending
}

// IsTerminal reports whether no transition leaves the status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// Record is the status-relevant projection of a persisted interview
// request. Version supports optimistic concurrency on transitions.
type Record struct {
	ID             uuid.UUID  `json:"id"`
	CandidateID    uuid.UUID  `json:"candidate_id"`
	CandidateName  string     `json:"candidate_name"`
	CandidateEmail string     `json:"candidate_email"`
	Field          string     `json:"field"`
	Level          string     `json:"level"`
	Topic          string     `json:"topic,omitempty"`
	Status         Status     `json:"status"`
	InterviewerID  *uuid.UUID `json:"interviewer_id,omitempty"`
	FinalScore     *int       `json:"final_score,omitempty"`
	Report         *string    `json:"report,omitempty"`
	Version        int64      `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}
