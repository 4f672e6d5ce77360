package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/sifan077/bookmarks/config"
	"github.com/sifan077/bookmarks/internal/app/model"
	"github.com/sifan077/bookmarks/internal/app/repository"
	"github.com/sifan077/bookmarks/internal/infra/logger"
	infraPostgres "github.com/sifan077/bookmarks/internal/infra/postgres"
	infraSQLite "github.com/sifan077/bookmarks/internal/infra/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// runtime is what every command needs: config, logger and an open store.
type runtime struct {
	cfg   *config.Config
	log   *zap.Logger
	db    *gorm.DB
	store repository.Store
}

func openRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.Init(logger.FromApp(cfg.App))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := openDatabase(cfg.Database, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	log.Info("database opened", zap.String("driver", driverName(cfg.Database)))

	return &runtime{
		cfg:   cfg,
		log:   log,
		db:    db,
		store: repository.NewStore(db),
	}, nil
}

func (r *runtime) Close() {
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = logger.Sync()
}

// prepare migrates the schema and makes sure the configured default site exists.
func (r *runtime) prepare(ctx context.Context) (*model.Site, error) {
	if err := repository.Migrate(ctx, r.db); err != nil {
		return nil, err
	}
	site := defaultSite(r.cfg.Site)
	if err := r.store.Sites().Ensure(ctx, site); err != nil {
		return nil, fmt.Errorf("ensure default site: %w", err)
	}
	return site, nil
}

func openDatabase(db config.DatabaseConfig, pg config.PostgresConfig) (*gorm.DB, error) {
	switch driverName(db) {
	case driverPostgres:
		return infraPostgres.NewGorm(pg)
	case driverSQLite:
		return infraSQLite.NewGorm(db.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown database driver %q", db.Driver)
	}
}

func driverName(db config.DatabaseConfig) string {
	if db.Driver == "" {
		return driverSQLite
	}
	return db.Driver
}

func defaultSite(cfg config.SiteConfig) *model.Site {
	site := &model.Site{Domain: cfg.Domain, Name: cfg.Name, Slug: cfg.Slug}
	if site.Name == "" {
		site.Name = site.Domain
	}
	return site
}

func sessionTTL(raw string) (time.Duration, error) {
	if raw == "" {
		return 14 * 24 * time.Hour, nil
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		return 0, fmt.Errorf("invalid server.session_ttl %q", raw)
	}
	return ttl, nil
}
