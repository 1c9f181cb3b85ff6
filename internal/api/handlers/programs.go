package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/mkorthuis/northern-backend/internal/assessment"
	"github.com/mkorthuis/northern-backend/internal/audit"
	"github.com/mkorthuis/northern-backend/internal/auth"
	"github.com/mkorthuis/northern-backend/internal/lock"
	"github.com/mkorthuis/northern-backend/internal/program"
	"github.com/mkorthuis/northern-backend/internal/prompt"
	"github.com/mkorthuis/northern-backend/internal/queue"
)

type ProgramHandler struct {
	orc   *program.Orchestrator
	queue *queue.Client
}

func NewProgramHandler(orc *program.Orchestrator, qc *queue.Client) *ProgramHandler {
	return &ProgramHandler{orc: orc, queue: qc}
}

// Generate runs a generation synchronously and returns the single terminal
// outcome. Attempt-level detail is only available via the Latest endpoint.
func (h *ProgramHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	result, err := h.orc.Generate(r.Context(), userID)
	if err != nil {
		writeGenerateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GenerateAsync enqueues a generation to run on the worker. The queue never
// retries: a busy user must not be queued behind the in-flight run.
func (h *ProgramHandler) GenerateAsync(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	if err := h.queue.EnqueueProgramGenerate(queue.ProgramGeneratePayload{UserID: userID.String()}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue generation"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "enqueued"})
}

type attemptResponse struct {
	AttemptNumber int       `json:"attempt_number"`
	ProviderName  string    `json:"provider_name"`
	Response      *string   `json:"response,omitempty"`
	Error         *string   `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type latestResponse struct {
	GenerateID  string            `json:"generate_id"`
	Status      string            `json:"status"`
	FinalOutput *string           `json:"final_output,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Attempts    []attemptResponse `json:"attempts"`
}

// Latest returns the user's newest finalized generation with its attempt
// trail ordered by attempt number.
func (h *ProgramHandler) Latest(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	gen, err := h.orc.Latest(r.Context(), userID)
	if errors.Is(err, audit.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no generation found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load generation"})
		return
	}

	resp := latestResponse{
		GenerateID:  gen.Parent.ID.String(),
		Status:      gen.Parent.Status,
		FinalOutput: gen.Parent.FinalOutput,
		CreatedAt:   gen.Parent.CreatedAt,
		Attempts:    make([]attemptResponse, 0, len(gen.Attempts)),
	}
	for _, a := range gen.Attempts {
		resp.Attempts = append(resp.Attempts, attemptResponse{
			AttemptNumber: a.AttemptNumber,
			ProviderName:  a.ProviderName,
			Response:      a.Response,
			Error:         a.Error,
			CreatedAt:     a.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeGenerateError maps the generation error taxonomy onto HTTP statuses.
func writeGenerateError(w http.ResponseWriter, err error) {
	var failed *program.FailedError

	switch {
	case errors.Is(err, lock.ErrHeld):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "generation already in progress"})
	case errors.Is(err, assessment.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no completed assessment response"})
	case errors.Is(err, assessment.ErrIncomplete):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "assessment response is missing answers"})
	case errors.Is(err, prompt.ErrTemplateVersion):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "prompt template misconfigured"})
	case errors.As(err, &failed):
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"generate_id": failed.GenerateID.String(),
			"error":       "all providers failed",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "generation failed"})
	}
}
