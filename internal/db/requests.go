package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/interview-coordinator/internal/lifecycle"
)

// ErrConcurrencyConflict indicates an optimistic-lock failure: the request
// changed underneath the caller between read and write. Recoverable; the
// caller should refetch and retry.
type ErrConcurrencyConflict struct {
	RequestID uuid.UUID
}

func (e *ErrConcurrencyConflict) Error() string {
	return fmt.Sprintf("request %s was modified concurrently", e.RequestID)
}

const requestColumns = `id, candidate_id, candidate_name, candidate_email, field, level,
	COALESCE(topic, ''), COALESCE(status, ''), interviewer_id, final_score,
	evaluation_report, version, created_at, updated_at, completed_at`

// scanRequest scans one request row, normalizing a missing status to
// pending at this single boundary.
func scanRequest(row pgx.Row) (*lifecycle.Record, error) {
	var record lifecycle.Record
	var rawStatus string
	err := row.Scan(
		&record.ID, &record.CandidateID, &record.CandidateName, &record.CandidateEmail,
		&record.Field, &record.Level, &record.Topic, &rawStatus, &record.InterviewerID,
		&record.FinalScore, &record.Report, &record.Version,
		&record.CreatedAt, &record.UpdatedAt, &record.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Status = lifecycle.NormalizeStatus(rawStatus)
	return &record, nil
}

// CreateRequest inserts a new interview request in pending status and
// returns its ID.
func (db *DB) CreateRequest(ctx context.Context, candidateID uuid.UUID, candidateName, candidateEmail, field, level, topic string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO interview_requests (candidate_id, candidate_name, candidate_email, field, level, topic, status, version)
		 VALUES ($1, $2, $3, $4, $5, $6, 'pending', 1)
		 RETURNING id`,
		candidateID, candidateName, candidateEmail, field, level, topic,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create request: %w", err)
	}
	return id, nil
}

// GetRequest retrieves an interview request by ID
func (db *DB) GetRequest(ctx context.Context, id uuid.UUID) (*lifecycle.Record, error) {
	record, err := scanRequest(db.pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM interview_requests WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return record, nil
}

// RequestFilters holds optional filters for listing requests
type RequestFilters struct {
	Status      string
	Field       string
	CandidateID uuid.UUID
	Limit       int
}

// ListRequests retrieves requests with optional filters, newest first.
// Visibility filtering is the caller's concern; this is raw storage access.
func (db *DB) ListRequests(ctx context.Context, filters RequestFilters) ([]*lifecycle.Record, error) {
	if filters.Limit == 0 {
		filters.Limit = 100
	}

	query := `SELECT ` + requestColumns + ` FROM interview_requests WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}
	if filters.Field != "" {
		query += fmt.Sprintf(" AND field ILIKE $%d", argNum)
		args = append(args, filters.Field)
		argNum++
	}
	if filters.CandidateID != uuid.Nil {
		query += fmt.Sprintf(" AND candidate_id = $%d", argNum)
		args = append(args, filters.CandidateID)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var records []*lifecycle.Record
	for rows.Next() {
		record, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// UpdateStatus moves a request to a new status, guarded by a version
// compare-and-swap. A version mismatch surfaces as ErrConcurrencyConflict.
func (db *DB) UpdateStatus(ctx context.Context, id uuid.UUID, to lifecycle.Status, version int64) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE interview_requests
		 SET status = $1, version = version + 1, updated_at = NOW()
		 WHERE id = $2 AND version = $3`,
		string(to), id, version,
	)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &ErrConcurrencyConflict{RequestID: id}
	}
	return nil
}

// CompleteRequest applies the completed transition together with the
// finalized score and report as one atomic, version-guarded write. A failed
// completion never leaves a partial record behind.
func (db *DB) CompleteRequest(ctx context.Context, id uuid.UUID, version int64, completion lifecycle.Completion) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.Exec(ctx,
		`UPDATE interview_requests
		 SET status = 'completed', final_score = $1, evaluation_report = $2,
		     interviewer_id = $3, completed_at = $4, version = version + 1, updated_at = NOW()
		 WHERE id = $5 AND version = $6`,
		completion.FinalScore, completion.Report, completion.InterviewerID,
		completion.CompletedAt, id, version,
	)
	if err != nil {
		return fmt.Errorf("failed to complete request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &ErrConcurrencyConflict{RequestID: id}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit completion: %w", err)
	}
	return nil
}

// AssignInterviewer records which interviewer opened the request for
// assessment.
func (db *DB) AssignInterviewer(ctx context.Context, id, interviewerID uuid.UUID, version int64) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE interview_requests
		 SET interviewer_id = $1, version = version + 1, updated_at = NOW()
		 WHERE id = $2 AND version = $3`,
		interviewerID, id, version,
	)
	if err != nil {
		return fmt.Errorf("failed to assign interviewer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &ErrConcurrencyConflict{RequestID: id}
	}
	return nil
}
