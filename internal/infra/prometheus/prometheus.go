package prometheus

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sifan077/bookmarks/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	defaultPort       = 9090
)

// NewServer builds the side server that serves the bookmarks Registry on /metrics.
// It runs on its own port so scrapes never pass through the site middleware.
func NewServer(cfg config.PrometheusConfig) *http.Server {
	return &http.Server{
		Addr:              Addr(cfg),
		Handler:           Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
}

// Handler exposes Registry, counting its own scrapes.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		Registry,
		promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry}),
	))
	return mux
}

func Addr(cfg config.PrometheusConfig) string {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf(":%d", port)
}
