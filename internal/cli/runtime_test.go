package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sifan077/bookmarks/config"
	"github.com/sifan077/bookmarks/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSessionTTL(t *testing.T) {
	ttl, err := sessionTTL("")
	require.NoError(t, err)
	assert.Equal(t, 14*24*time.Hour, ttl)

	ttl, err = sessionTTL("2h")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, ttl)

	for _, bad := range []string{"soon", "-1h", "0s"} {
		_, err = sessionTTL(bad)
		assert.Error(t, err, bad)
	}
}

func TestSessionSecret(t *testing.T) {
	secret, err := sessionSecret("configured", false, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []byte("configured"), secret)

	secret, err = sessionSecret("", true, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, secret, 32)

	_, err = sessionSecret("", false, zap.NewNop())
	assert.Error(t, err)
}

func TestSessionCookieLine(t *testing.T) {
	expires := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	assert.Equal(t,
		"sid=abc.def; Path=/; Expires=Fri, 01 Mar 2024 09:00:00 GMT",
		sessionCookieLine("sid", "abc.def", expires),
	)
}

func TestDefaultSite(t *testing.T) {
	site := defaultSite(config.SiteConfig{Domain: "bookmarks.test", Slug: "test"})
	assert.Equal(t, "bookmarks.test", site.Name)
	assert.Equal(t, "test", site.Slug)
}

func TestOpenDatabaseAndPrepare(t *testing.T) {
	_, err := openDatabase(config.DatabaseConfig{Driver: "mysql"}, config.PostgresConfig{})
	assert.Error(t, err)

	db, err := openDatabase(config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "cli.db"),
	}, config.PostgresConfig{})
	require.NoError(t, err)

	rt := &runtime{
		cfg:   &config.Config{Site: config.SiteConfig{Domain: "bookmarks.test", Name: "Test", Slug: "test"}},
		log:   zap.NewNop(),
		db:    db,
		store: repository.NewStore(db),
	}
	defer rt.Close()

	ctx := context.Background()
	site, err := rt.prepare(ctx)
	require.NoError(t, err)
	require.NotZero(t, site.ID)

	// Running it again keeps the same row.
	again, err := rt.prepare(ctx)
	require.NoError(t, err)
	assert.Equal(t, site.ID, again.ID)

	found, err := rt.store.Sites().GetByDomain(ctx, "bookmarks.test")
	require.NoError(t, err)
	assert.Equal(t, "Test", found.Name)
}
