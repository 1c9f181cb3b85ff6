package models

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentQuestion is authored by the assessment subsystem and read-only here.
type AssessmentQuestion struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   int       `json:"order_id" db:"order_id"`
	Question  string    `json:"question" db:"question"`
	Options   []string  `json:"options" db:"options"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AssessmentResponse is one completed assessment instance for a user.
// Immutable after creation.
type AssessmentResponse struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AssessmentResponseQuestion links a response to a question with the user's answer.
type AssessmentResponseQuestion struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	AssessmentResponseID uuid.UUID `json:"assessment_response_id" db:"assessment_response_id"`
	AssessmentQuestionID uuid.UUID `json:"assessment_question_id" db:"assessment_question_id"`
	ResponseValue        string    `json:"response_value" db:"response_value"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}
