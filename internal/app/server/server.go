package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/bookmarks/config"
	"github.com/sifan077/bookmarks/internal/app/model"
	"github.com/sifan077/bookmarks/internal/app/repository"
	"github.com/sifan077/bookmarks/internal/app/service"
	inthttp "github.com/sifan077/bookmarks/internal/http/handler"
	"github.com/sifan077/bookmarks/internal/http/middleware"
	httpUtil "github.com/sifan077/bookmarks/internal/http/util"
	"github.com/sifan077/bookmarks/internal/http/view"
	"go.uber.org/zap"
)

// Dependencies bundles what the HTTP server needs. Postgres and Redis are optional.
type Dependencies struct {
	Logger      *zap.Logger
	Config      config.ServerConfig
	RateLimit   config.RateLimitConfig
	Store       repository.Store
	Bookmarks   service.BookmarkService
	Sessions    *httpUtil.SessionSigner
	Sidebar     *view.Sidebar
	DefaultSite *model.Site
	Database    inthttp.Pinger
	Postgres    *pgxpool.Pool
	Redis       *redis.Client
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates the HTTP server with middleware and routes registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               "bookmarks",
		DisableStartupMessage: true,
		ErrorHandler:          inthttp.ErrorHandler(deps.Logger),
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// App exposes the Fiber application, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	log := s.deps.Logger
	s.app.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Site(s.deps.Store.Sites(), s.deps.DefaultSite, log),
		middleware.Session(s.deps.Config.SessionCookie, s.deps.Sessions, s.deps.Store.Users(), log),
		middleware.Logger(log),
	)
}

func (s *Server) registerRoutes() {
	inthttp.NewHealthHandler(inthttp.HealthDeps{
		Logger:   s.deps.Logger,
		Database: s.deps.Database,
		Postgres: s.deps.Postgres,
		Redis:    s.deps.Redis,
	}).Register(s.app)

	limit := middleware.DefaultRateLimitConfig()
	if s.deps.RateLimit.MaxRequests > 0 {
		limit.MaxRequests = s.deps.RateLimit.MaxRequests
	}
	if s.deps.RateLimit.Window > 0 {
		limit.Window = s.deps.RateLimit.Window
	}

	inthttp.NewBookmarkHandler(inthttp.BookmarkDeps{
		Logger:      s.deps.Logger,
		Bookmarks:   s.deps.Bookmarks,
		Sidebar:     s.deps.Sidebar,
		FlashCookie: s.deps.Config.FlashCookie,
		LoginURL:    s.deps.Config.LoginURL,
		AddLimiter:  middleware.RateLimit(s.deps.Redis, limit, s.deps.Logger),
	}).Register(s.app)
}
