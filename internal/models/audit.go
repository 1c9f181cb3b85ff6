package models

import (
	"time"

	"github.com/google/uuid"
)

// Generation attempt statuses. A parent transitions from pending to exactly
// one terminal status and is never touched again.
const (
	GenerateStatusPending   = "pending"
	GenerateStatusSucceeded = "succeeded"
	GenerateStatusFailed    = "failed"
)

// ProgramGenerateAudit is the parent record of one end-to-end generation run.
// AssessmentResponseID is nil when the run failed before a completed response
// was found, so even those runs stay auditable.
type ProgramGenerateAudit struct {
	ID                   uuid.UUID  `json:"id" db:"id"`
	AssessmentResponseID *uuid.UUID `json:"assessment_response_id,omitempty" db:"assessment_response_id"`
	UserID               uuid.UUID  `json:"user_id" db:"user_id"`
	Status               string     `json:"status" db:"status"`
	FinalOutput          *string    `json:"final_output,omitempty" db:"final_output"`
	Error                *string    `json:"error,omitempty" db:"error"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	FinalizedAt          *time.Time `json:"finalized_at,omitempty" db:"finalized_at"`
}

// ProgramGenerateLLMAudit is one LLM call attempt within a generation run.
// Append-only; never updated after insert.
type ProgramGenerateLLMAudit struct {
	ID                     uuid.UUID `json:"id" db:"id"`
	ProgramGenerateAuditID uuid.UUID `json:"program_generate_audit_id" db:"program_generate_audit_id"`
	ProviderName           string    `json:"provider_name" db:"provider_name"`
	SystemPrompt           string    `json:"system_prompt" db:"system_prompt"`
	MessagePrompt          string    `json:"message_prompt" db:"message_prompt"`
	Response               *string   `json:"response,omitempty" db:"response"`
	Error                  *string   `json:"error,omitempty" db:"error"`
	AttemptNumber          int       `json:"attempt_number" db:"attempt_number"`
	CreatedAt              time.Time `json:"created_at" db:"created_at"`
}
