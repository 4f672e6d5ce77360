package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// Pinger is anything that can report its own reachability, e.g. *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthDeps groups the backends the health check reports on. Nil ones are skipped.
type HealthDeps struct {
	Logger   *zap.Logger
	Database Pinger
	Postgres *pgxpool.Pool
	Redis    *redis.Client
}

type HealthHandler struct {
	logger   *zap.Logger
	database Pinger
	postgres *pgxpool.Pool
	redis    *redis.Client
}

func NewHealthHandler(deps HealthDeps) *HealthHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{
		logger:   logger,
		database: deps.Database,
		postgres: deps.Postgres,
		redis:    deps.Redis,
	}
}

func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
}

// Health handles GET /health and answers 503 when any configured backend is down.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	checks := fiber.Map{}
	healthy := true
	record := func(name string, configured bool, ping func(context.Context) error) {
		if !configured {
			checks[name] = "skipped"
			return
		}
		if err := ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("backend", name), zap.Error(err))
			checks[name] = "error"
			healthy = false
			return
		}
		checks[name] = "ok"
	}

	record("database", h.database != nil, func(ctx context.Context) error { return h.database.PingContext(ctx) })
	record("postgres", h.postgres != nil, func(ctx context.Context) error { return h.postgres.Ping(ctx) })
	record("redis", h.redis != nil, func(ctx context.Context) error { return h.redis.Ping(ctx).Err() })

	status, code := "ok", fiber.StatusOK
	if !healthy {
		status, code = "degraded", fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"service": "bookmarks",
		"status":  status,
		"checks":  checks,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
