// Package assessment provides read-only access to a user's completed
// assessment responses. The assessment tables are owned by the authoring
// subsystem; this store never writes them.
package assessment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkorthuis/northern-backend/internal/models"
)

var (
	// ErrNotFound means the user has no completed assessment response.
	ErrNotFound = errors.New("assessment: no completed response for user")
	// ErrIncomplete means the response is missing answers for one or more
	// questions and is not eligible for generation.
	ErrIncomplete = errors.New("assessment: response is missing answers")
)

// AnsweredQuestion pairs a question with the user's answer, in prompt order.
type AnsweredQuestion struct {
	Question models.AssessmentQuestion
	Value    string
}

// ResponseSet is a user's most recent completed response with its answers
// sorted by question order_id ascending.
type ResponseSet struct {
	Response models.AssessmentResponse
	Answers  []AnsweredQuestion
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// OrderedResponses returns the user's latest response with answers in
// question order. Fails with ErrNotFound if no response exists and
// ErrIncomplete if any question in the bank lacks an answer.
func (s *Store) OrderedResponses(ctx context.Context, userID uuid.UUID) (*ResponseSet, error) {
	var resp models.AssessmentResponse
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, created_at FROM assessment_response
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`,
		userID,
	).Scan(&resp.ID, &resp.UserID, &resp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get response: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT q.id, q.order_id, q.question, q.options, q.created_at, rq.response_value
		 FROM assessment_question q
		 LEFT JOIN assessment_response_question rq
		   ON rq.assessment_question_id = q.id AND rq.assessment_response_id = $1
		 ORDER BY q.order_id ASC`,
		resp.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	set := &ResponseSet{Response: resp}
	for rows.Next() {
		var q models.AssessmentQuestion
		var value *string
		if err := rows.Scan(&q.ID, &q.OrderID, &q.Question, &q.Options, &q.CreatedAt, &value); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if value == nil {
			return nil, ErrIncomplete
		}
		set.Answers = append(set.Answers, AnsweredQuestion{Question: q, Value: *value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}

	if len(set.Answers) == 0 {
		return nil, ErrIncomplete
	}
	return set, nil
}
