package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/mkorthuis/northern-backend/internal/program"
	"github.com/mkorthuis/northern-backend/internal/queue"
)

// ProgramWorker runs queued generation requests. Every outcome is already
// recorded in the audit ledger by the orchestrator; the worker only decides
// whether asynq should consider the task consumed.
type ProgramWorker struct {
	orc *program.Orchestrator
}

func NewProgramWorker(orc *program.Orchestrator) *ProgramWorker {
	return &ProgramWorker{orc: orc}
}

func (w *ProgramWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ProgramGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", payload.UserID, asynq.SkipRetry)
	}

	result, err := w.orc.Generate(ctx, userID)
	if err != nil {
		// Terminal outcomes are audited; nothing here is retryable.
		slog.Warn("queued generation failed", "user_id", userID, "error", err)
		return errors.Join(err, asynq.SkipRetry)
	}

	slog.Info("queued generation succeeded", "user_id", userID, "generate_id", result.GenerateID)
	return nil
}
