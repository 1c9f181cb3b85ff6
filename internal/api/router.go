package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mkorthuis/northern-backend/internal/api/handlers"
	"github.com/mkorthuis/northern-backend/internal/api/middleware"
	"github.com/mkorthuis/northern-backend/internal/assessment"
	"github.com/mkorthuis/northern-backend/internal/audit"
	"github.com/mkorthuis/northern-backend/internal/auth"
	"github.com/mkorthuis/northern-backend/internal/config"
	"github.com/mkorthuis/northern-backend/internal/llm"
	"github.com/mkorthuis/northern-backend/internal/lock"
	"github.com/mkorthuis/northern-backend/internal/program"
	"github.com/mkorthuis/northern-backend/internal/prompt"
	"github.com/mkorthuis/northern-backend/internal/queue"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	jwt   *auth.JWTMiddleware
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		jwt:   auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
	}
}

func (rt *Router) Setup() (http.Handler, error) {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	orc, err := NewOrchestrator(rt.db, rt.redis, rt.cfg)
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}
	queueClient := queue.NewClient(rt.cfg.Redis)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		programH := handlers.NewProgramHandler(orc, queueClient)
		r.Route("/programs", func(r chi.Router) {
			r.Post("/generate", programH.Generate)
			r.Post("/generate/async", programH.GenerateAsync)
			r.Get("/latest", programH.Latest)
		})
	})

	return r, nil
}

// NewOrchestrator wires the generation orchestrator from its concrete parts.
// Shared between the API and the queue worker so both paths contend on the
// same redis lock.
func NewOrchestrator(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) (*program.Orchestrator, error) {
	providers, err := llm.NewRegistry(cfg.LLM)
	if err != nil {
		return nil, err
	}

	chain := make([]program.Completer, 0, len(providers))
	for _, p := range providers {
		chain = append(chain, p)
	}

	return program.NewOrchestrator(
		assessment.NewStore(db),
		prompt.Assemble,
		chain,
		audit.NewLedger(db),
		lock.NewRedisLocker(rdb),
		program.Options{
			TemplateVersion:   cfg.Prompt.TemplateVersion,
			PerAttemptTimeout: cfg.LLM.PerAttemptTimeout,
			MaxAttempts:       cfg.LLM.MaxAttempts,
			RetryBackoff:      cfg.LLM.RetryBackoff,
			LockLease:         cfg.LockLease(),
		},
	), nil
}
