// Package program coordinates end-to-end program generation: lock the user,
// load their assessment answers, assemble prompts, walk the configured
// provider chain, and audit every attempt before finalizing a single outcome.
package program

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mkorthuis/northern-backend/internal/assessment"
	"github.com/mkorthuis/northern-backend/internal/audit"
	"github.com/mkorthuis/northern-backend/internal/lock"
	"github.com/mkorthuis/northern-backend/internal/models"
)

// AssessmentSource reads a user's ordered assessment answers.
type AssessmentSource interface {
	OrderedResponses(ctx context.Context, userID uuid.UUID) (*assessment.ResponseSet, error)
}

// AssembleFunc renders the system and message prompts for a response set and
// template version.
type AssembleFunc func(set *assessment.ResponseSet, version string) (system, message string, err error)

// Completer is one LLM backend in the configured chain.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, messagePrompt string) (string, error)
	Name() string
}

// Ledger is the append-only audit trail of generation runs.
type Ledger interface {
	CreateParent(ctx context.Context, userID uuid.UUID, responseID *uuid.UUID) (uuid.UUID, error)
	AppendChild(ctx context.Context, c audit.Child) error
	FinalizeParent(ctx context.Context, id uuid.UUID, status string, finalOutput, errMsg *string) error
	LatestForUser(ctx context.Context, userID uuid.UUID) (*models.ProgramGenerateAudit, []models.ProgramGenerateLLMAudit, error)
}

// Options bound one generation run. Providers are tried in order, each at
// most once, up to MaxAttempts total.
type Options struct {
	TemplateVersion   string
	PerAttemptTimeout time.Duration
	MaxAttempts       int
	RetryBackoff      time.Duration
	LockLease         time.Duration
}

// Result is the single terminal outcome of a successful run.
type Result struct {
	GenerateID  uuid.UUID `json:"generate_id"`
	FinalOutput string    `json:"final_output"`
}

// Generation is a finalized run with its full attempt trail.
type Generation struct {
	Parent   models.ProgramGenerateAudit
	Attempts []models.ProgramGenerateLLMAudit
}

// FailedError reports a run that exhausted all configured providers. The
// parent audit row identified by GenerateID holds the attempt trail.
type FailedError struct {
	GenerateID uuid.UUID
	Err        error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("program generation %s failed: %v", e.GenerateID, e.Err)
}

func (e *FailedError) Unwrap() error { return e.Err }

type Orchestrator struct {
	source    AssessmentSource
	assemble  AssembleFunc
	providers []Completer
	ledger    Ledger
	locks     lock.Locker
	opts      Options
}

func NewOrchestrator(source AssessmentSource, assemble AssembleFunc, providers []Completer, ledger Ledger, locks lock.Locker, opts Options) *Orchestrator {
	if opts.MaxAttempts <= 0 || opts.MaxAttempts > len(providers) {
		opts.MaxAttempts = len(providers)
	}
	return &Orchestrator{
		source:    source,
		assemble:  assemble,
		providers: providers,
		ledger:    ledger,
		locks:     locks,
		opts:      opts,
	}
}

// Generate runs one generation for the user. Exactly one parent audit row is
// written per call that gets past the lock, and one child row per provider
// attempt. A concurrent run for the same user fails fast with lock.ErrHeld.
func (o *Orchestrator) Generate(ctx context.Context, userID uuid.UUID) (*Result, error) {
	release, err := o.locks.Acquire(ctx, userID.String(), o.opts.LockLease)
	if err != nil {
		return nil, err
	}
	defer func() {
		// The lock outlives caller cancellation; release must too.
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			slog.Warn("release generation lock", "user_id", userID, "error", rerr)
		}
	}()

	set, srcErr := o.source.OrderedResponses(ctx, userID)

	var responseID *uuid.UUID
	if set != nil {
		responseID = &set.Response.ID
	}

	parentID, err := o.ledger.CreateParent(ctx, userID, responseID)
	if err != nil {
		return nil, fmt.Errorf("create audit parent: %w", err)
	}

	if srcErr != nil {
		return nil, o.fail(ctx, parentID, srcErr)
	}

	systemPrompt, messagePrompt, err := o.assemble(set, o.opts.TemplateVersion)
	if err != nil {
		return nil, o.fail(ctx, parentID, err)
	}

	return o.callProviders(ctx, parentID, systemPrompt, messagePrompt)
}

// callProviders walks the provider chain, auditing every attempt before the
// parent is finalized. Attempt numbers are assigned 1..k in call order.
func (o *Orchestrator) callProviders(ctx context.Context, parentID uuid.UUID, systemPrompt, messagePrompt string) (*Result, error) {
	var lastErr error
	attempt := 0

	for _, provider := range o.providers {
		if attempt >= o.opts.MaxAttempts {
			break
		}
		// Caller cancellation prevents starting further attempts; the
		// in-flight attempt below always runs to its own timeout.
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		attempt++

		if attempt > 1 && o.opts.RetryBackoff > 0 {
			if err := o.backoff(ctx, attempt); err != nil {
				lastErr = err
				break
			}
		}

		text, callErr := o.callOne(ctx, provider, systemPrompt, messagePrompt)

		child := audit.Child{
			ParentID:      parentID,
			AttemptNumber: attempt,
			ProviderName:  provider.Name(),
			SystemPrompt:  systemPrompt,
			MessagePrompt: messagePrompt,
		}
		if callErr != nil {
			msg := callErr.Error()
			child.Error = &msg
		} else {
			child.Response = &text
		}
		if err := o.ledger.AppendChild(context.WithoutCancel(ctx), child); err != nil {
			// Ledger conflicts are logic defects; finalize and propagate hard.
			ferr := o.fail(ctx, parentID, err)
			return nil, errors.Join(err, ferr)
		}

		if callErr == nil {
			if err := o.ledger.FinalizeParent(context.WithoutCancel(ctx), parentID,
				models.GenerateStatusSucceeded, &text, nil); err != nil {
				return nil, err
			}
			slog.Info("program generation succeeded",
				"generate_id", parentID, "provider", provider.Name(), "attempts", attempt)
			return &Result{GenerateID: parentID, FinalOutput: text}, nil
		}

		slog.Warn("provider attempt failed",
			"generate_id", parentID, "provider", provider.Name(), "attempt", attempt, "error", callErr)
		lastErr = callErr
	}

	if lastErr == nil {
		lastErr = errors.New("no provider attempts were made")
	}
	return nil, o.fail(ctx, parentID, lastErr)
}

// callOne runs a single provider call bounded by the per-attempt timeout on a
// context detached from caller cancellation, so an abort never leaves an
// attempt without its audit row.
func (o *Orchestrator) callOne(ctx context.Context, provider Completer, systemPrompt, messagePrompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.PerAttemptTimeout)
	defer cancel()
	return provider.Complete(callCtx, systemPrompt, messagePrompt)
}

// backoff sleeps before a follow-up attempt: RetryBackoff doubled per extra
// attempt, capped at one minute. Caller cancellation cuts the wait short.
func (o *Orchestrator) backoff(ctx context.Context, attempt int) error {
	d := o.opts.RetryBackoff << (attempt - 2)
	if d > time.Minute {
		d = time.Minute
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// fail finalizes the parent as failed, recording why, and returns the
// original error wrapped with the audit identifier.
func (o *Orchestrator) fail(ctx context.Context, parentID uuid.UUID, cause error) error {
	msg := cause.Error()
	if err := o.ledger.FinalizeParent(context.WithoutCancel(ctx), parentID,
		models.GenerateStatusFailed, nil, &msg); err != nil {
		slog.Error("finalize failed generation", "generate_id", parentID, "error", err)
	}
	slog.Warn("program generation failed", "generate_id", parentID, "error", cause)
	return &FailedError{GenerateID: parentID, Err: cause}
}

// Latest returns the user's newest finalized generation with its attempt
// trail, or audit.ErrNotFound if none exists.
func (o *Orchestrator) Latest(ctx context.Context, userID uuid.UUID) (*Generation, error) {
	parent, attempts, err := o.ledger.LatestForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Generation{Parent: *parent, Attempts: attempts}, nil
}
