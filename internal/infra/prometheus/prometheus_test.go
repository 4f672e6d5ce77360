package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sifan077/bookmarks/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddr(t *testing.T) {
	assert.Equal(t, ":9090", Addr(config.PrometheusConfig{}))
	assert.Equal(t, ":9100", Addr(config.PrometheusConfig{Port: 9100}))
}

func TestHandlerExposesBookmarkCounters(t *testing.T) {
	BookmarksSaved.WithLabelValues("true").Inc()
	InstancesDeleted.WithLabelValues("cascade").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bookmarks_saved_total{created="true"}`)
	assert.Contains(t, string(body), `bookmarks_instances_deleted_total{outcome="cascade"}`)
}
