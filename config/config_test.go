package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.Development())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "bookmarks_session", cfg.Server.SessionCookie)
	assert.Equal(t, "/accounts/login/", cfg.Server.LoginURL)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "example.com", cfg.Site.Domain)
	assert.Equal(t, 5*time.Second, cfg.Favicon.Timeout)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "5 for user as user_recent_bookmarks", cfg.View.UserRecentDirective)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
app:
  env: production
site:
  domain: bookmarks.example.org
  slug: org
favicon:
  timeout: 2s
`), 0o600))
	t.Setenv("PG_HOST", "db.internal")
	t.Setenv("BOOKMARKS_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.App.Development())
	assert.Equal(t, "bookmarks.example.org", cfg.Site.Domain)
	assert.Equal(t, "org", cfg.Site.Slug)
	assert.Equal(t, 2*time.Second, cfg.Favicon.Timeout)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, "s3cret", cfg.Server.Secret)
	assert.Equal(t, 5432, cfg.Postgres.Port)
}
