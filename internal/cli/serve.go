package cli

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	appserver "github.com/sifan077/bookmarks/internal/app/server"
	"github.com/sifan077/bookmarks/internal/app/search"
	"github.com/sifan077/bookmarks/internal/app/service"
	httpUtil "github.com/sifan077/bookmarks/internal/http/util"
	"github.com/sifan077/bookmarks/internal/http/view"
	"github.com/sifan077/bookmarks/internal/infra/logger"
	infraNATS "github.com/sifan077/bookmarks/internal/infra/nats"
	infraPostgres "github.com/sifan077/bookmarks/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/bookmarks/internal/infra/prometheus"
	infraRedis "github.com/sifan077/bookmarks/internal/infra/redis"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bookmarks web server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Bool("migrate", true, "Migrate the schema and ensure the default site before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, log := rt.cfg, rt.log

	log.Info("Configuration loaded successfully",
		zap.String("env", cfg.App.Env),
		zap.String("addr", cfg.Server.Addr),
		zap.String("database_driver", driverName(cfg.Database)),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
		zap.String("default_site", cfg.Site.Domain),
	)

	site := defaultSite(cfg.Site)
	migrate := true
	if cmd.Flags().Lookup("migrate") != nil {
		migrate, _ = cmd.Flags().GetBool("migrate")
	}
	if migrate {
		if site, err = rt.prepare(ctx); err != nil {
			return err
		}
	} else if site, err = rt.store.Sites().GetByDomain(ctx, cfg.Site.Domain); err != nil {
		return err
	}

	sqlDB, err := rt.db.DB()
	if err != nil {
		return err
	}

	var pool *pgxpool.Pool
	if driverName(cfg.Database) == driverPostgres {
		if pool, err = infraPostgres.NewPool(ctx, cfg.Postgres); err != nil {
			return err
		}
		defer pool.Close()
		log.Info("Connected to Postgres successfully")
	}

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("Connected to Redis successfully")
	}

	var indexer search.Indexer = search.Nop{}
	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		return err
	}
	if natsConn != nil {
		defer natsConn.Drain()
		indexer = search.NewPublisher(js, cfg.NATS.SubjectPrefix)
		log.Info("Connected to NATS successfully", zap.String("subjects", cfg.NATS.SubjectPrefix+".>"))
	}

	if cfg.Prometheus.Enabled {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server", zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	}

	var prober service.FaviconProber = service.NoFaviconProber
	if cfg.Favicon.Enabled {
		prober = service.NewHTTPFaviconProber(cfg.Favicon.Timeout, cfg.Favicon.UserAgent, logger.Component("favicon"))
	}

	bookmarks := service.NewBookmarkService(service.BookmarkServiceDeps{
		Store:   rt.store,
		Indexer: indexer,
		Favicon: prober,
		Logger:  logger.Component("bookmarks"),
	})

	sidebar, err := view.NewSidebar(bookmarks, cfg.View.RecentDirective, cfg.View.UserRecentDirective)
	if err != nil {
		return err
	}

	secret, err := sessionSecret(cfg.Server.Secret, cfg.App.Development(), log)
	if err != nil {
		return err
	}
	ttl, err := sessionTTL(cfg.Server.SessionTTL)
	if err != nil {
		return err
	}

	server := appserver.New(appserver.Dependencies{
		Logger:      logger.Component("http"),
		Config:      cfg.Server,
		RateLimit:   cfg.RateLimit,
		Store:       rt.store,
		Bookmarks:   bookmarks,
		Sessions:    httpUtil.NewSessionSigner(secret, ttl),
		Sidebar:     sidebar,
		DefaultSite: site,
		Database:    sqlDB,
		Postgres:    pool,
		Redis:       redisClient,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", cfg.Server.Addr))
		errCh <- server.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// sessionSecret returns the configured secret. Development runs without one get a
// random secret, which signs everyone out on restart.
func sessionSecret(configured string, development bool, log *zap.Logger) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	if !development {
		return nil, errors.New("server.secret (BOOKMARKS_SECRET) must be set in production")
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	log.Warn("server.secret is empty; using a random session secret")
	return secret, nil
}
