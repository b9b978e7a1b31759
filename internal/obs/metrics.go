package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics. They live at package level so that constructing
// several pollers or notifiers in one process (tests included) never
// registers a collector twice.
var (
	PollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medistream_polls_total", Help: "Dataset polls by kind and outcome",
	}, []string{"kind", "outcome"})

	PollDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "medistream_poll_duration_seconds", Help: "Dataset fetch latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	DatasetRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "medistream_dataset_rows", Help: "Row count of the last good snapshot",
	}, []string{"kind"})

	ChangeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medistream_change_events_total", Help: "Growth detections by kind and decision",
	}, []string{"kind", "decision"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medistream_notifications_total", Help: "Change events handled by the notifier, by result",
	}, []string{"result"})

	Tones = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medistream_tones_total", Help: "Tone requests by result",
	}, []string{"result"})

	WorkflowPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medistream_workflow_polls_total", Help: "Workflow execution polls by outcome",
	}, []string{"outcome"})

	RelayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_relay_requests_total", Help: "Relay requests by upstream status class",
	}, []string{"status"})

	RelayDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "workflow_relay_upstream_duration_seconds", Help: "Upstream round-trip latency",
		Buckets: prometheus.DefBuckets,
	})
)
