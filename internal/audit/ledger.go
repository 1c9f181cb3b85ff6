// Package audit persists the generation audit trail: one parent row per
// orchestration run, one child row per LLM call attempt. Rows are append-only;
// the only mutation ever performed is the parent's single pending-to-terminal
// status transition.
package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkorthuis/northern-backend/internal/models"
)

// ErrConflict signals a violated ledger invariant: a reused attempt number or
// a second finalize on the same parent. It indicates a logic defect in the
// caller and is never retried.
var ErrConflict = errors.New("audit: ledger conflict")

// ErrNotFound means no finalized generation exists for the user.
var ErrNotFound = errors.New("audit: no generation for user")

const pgUniqueViolation = "23505"

type Ledger struct {
	db *pgxpool.Pool
}

func NewLedger(db *pgxpool.Pool) *Ledger {
	return &Ledger{db: db}
}

// CreateParent opens a new generation run in status pending. responseID may
// be nil when the run failed before a completed response was located.
func (l *Ledger) CreateParent(ctx context.Context, userID uuid.UUID, responseID *uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := l.db.QueryRow(ctx,
		`INSERT INTO program_generate_audit (assessment_response_id, user_id, status)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		responseID, userID, models.GenerateStatusPending,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert generate audit: %w", err)
	}
	return id, nil
}

// Child is one LLM call attempt to record.
type Child struct {
	ParentID      uuid.UUID
	AttemptNumber int
	ProviderName  string
	SystemPrompt  string
	MessagePrompt string
	Response      *string
	Error         *string
}

// AppendChild records one attempt. A reused attempt number for the same
// parent fails with ErrConflict via the unique constraint.
func (l *Ledger) AppendChild(ctx context.Context, c Child) error {
	_, err := l.db.Exec(ctx,
		`INSERT INTO program_generate_llm_audit
		 (program_generate_audit_id, provider_name, system_prompt, message_prompt, response, error, attempt_number)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ParentID, c.ProviderName, c.SystemPrompt, c.MessagePrompt, c.Response, c.Error, c.AttemptNumber,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: attempt %d already recorded for parent %s", ErrConflict, c.AttemptNumber, c.ParentID)
		}
		return fmt.Errorf("insert llm audit: %w", err)
	}
	return nil
}

// FinalizeParent transitions the parent from pending to a terminal status.
// Allowed exactly once; a second call fails with ErrConflict.
func (l *Ledger) FinalizeParent(ctx context.Context, id uuid.UUID, status string, finalOutput, errMsg *string) error {
	tag, err := l.db.Exec(ctx,
		`UPDATE program_generate_audit
		 SET status = $2, final_output = $3, error = $4, finalized_at = now()
		 WHERE id = $1 AND status = $5`,
		id, status, finalOutput, errMsg, models.GenerateStatusPending,
	)
	if err != nil {
		return fmt.Errorf("finalize generate audit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: parent %s already finalized", ErrConflict, id)
	}
	return nil
}

// LatestForUser returns the newest finalized generation for the user with its
// attempts in attempt order. Pending parents belong to orchestrations still in
// flight and are never observed here.
func (l *Ledger) LatestForUser(ctx context.Context, userID uuid.UUID) (*models.ProgramGenerateAudit, []models.ProgramGenerateLLMAudit, error) {
	var parent models.ProgramGenerateAudit
	err := l.db.QueryRow(ctx,
		`SELECT id, assessment_response_id, user_id, status, final_output, error, created_at, finalized_at
		 FROM program_generate_audit
		 WHERE user_id = $1 AND status <> $2
		 ORDER BY created_at DESC LIMIT 1`,
		userID, models.GenerateStatusPending,
	).Scan(&parent.ID, &parent.AssessmentResponseID, &parent.UserID, &parent.Status,
		&parent.FinalOutput, &parent.Error, &parent.CreatedAt, &parent.FinalizedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get latest generate audit: %w", err)
	}

	rows, err := l.db.Query(ctx,
		`SELECT id, program_generate_audit_id, provider_name, system_prompt, message_prompt, response, error, attempt_number, created_at
		 FROM program_generate_llm_audit
		 WHERE program_generate_audit_id = $1
		 ORDER BY attempt_number ASC`,
		parent.ID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("get llm audits: %w", err)
	}
	defer rows.Close()

	var children []models.ProgramGenerateLLMAudit
	for rows.Next() {
		var c models.ProgramGenerateLLMAudit
		if err := rows.Scan(&c.ID, &c.ProgramGenerateAuditID, &c.ProviderName, &c.SystemPrompt,
			&c.MessagePrompt, &c.Response, &c.Error, &c.AttemptNumber, &c.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan llm audit: %w", err)
		}
		children = append(children, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate llm audits: %w", err)
	}

	return &parent, children, nil
}
