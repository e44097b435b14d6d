package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Response sources recorded on strategyResponses.
const (
	sourceCache       = "cache"
	sourceNetwork     = "network"
	sourceOfflinePage = "offline_page"
	sourceRootDoc     = "root_document"
	sourcePlaceholder = "placeholder"
	sourceSynthetic   = "synthetic"
)

var (
	strategyResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cornella_router_responses_total",
		Help: "Responses produced by the offline router by class and source",
	}, []string{"class", "source"})

	networkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cornella_router_network_failures_total",
		Help: "Network failures handled by the offline router by class",
	}, []string{"class"})

	cacheWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cornella_router_cache_write_failures_total",
		Help: "Failed cache writes by bucket",
	}, []string{"bucket"})
)
