package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every bookmarks collector plus the Go runtime and process collectors.
var Registry = prometheus.NewRegistry()

var (
	BookmarksSaved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookmarks",
		Name:      "saved_total",
		Help:      "Bookmark instances saved, partitioned by whether a new bookmark row was created.",
	}, []string{"created"})

	InstancesDeleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookmarks",
		Name:      "instances_deleted_total",
		Help:      "Delete requests by outcome (deleted, cascade, not_owner).",
	}, []string{"outcome"})

	FaviconChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookmarks",
		Name:      "favicon_checks_total",
		Help:      "Favicon probes by result.",
	}, []string{"found"})

	SearchEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookmarks",
		Name:      "search_events_total",
		Help:      "Search index events emitted, by action and result.",
	}, []string{"action", "result"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		BookmarksSaved,
		InstancesDeleted,
		FaviconChecks,
		SearchEvents,
	)
}
