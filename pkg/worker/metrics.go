package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	passThroughTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cornella_worker_passthrough_total",
		Help: "Requests passed to the network without interception",
	})

	installFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cornella_worker_install_failures_total",
		Help: "Install runs whose shell population failed",
	})

	syncEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cornella_worker_sync_events_total",
		Help: "Background sync events received",
	})
)
