package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Resolutions *prometheus.CounterVec = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fns_bill_resolutions_total",
	Help: "Number of bill resolutions by outcome (success or failed workflow step)",
}, []string{"outcome"})

var ResolveDuration prometheus.Histogram = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "fns_bill_resolve_duration_seconds",
	Help:    "Wall time of a full authorize, ticket and bill workflow",
	Buckets: prometheus.DefBuckets,
})

var StepDuration *prometheus.HistogramVec = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "fns_bill_step_duration_seconds",
	Help:    "Duration of each FNS API call by step and outcome",
	Buckets: prometheus.DefBuckets,
}, []string{"step", "outcome"})

var QRDecodes *prometheus.CounterVec = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fns_bill_qr_decodes_total",
	Help: "Number of QR image decodes by outcome",
}, []string{"outcome"})

var BotUpdates *prometheus.CounterVec = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fns_bill_bot_updates_total",
	Help: "Number of chat messages handled by kind (command, photo, text)",
}, []string{"kind"})
