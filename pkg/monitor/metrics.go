package monitor

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Link traffic
	CommandsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tek_commands_sent_total",
		Help: "Commands written to the instrument link",
	})

	Queries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tek_queries_total",
		Help: "Queries answered by the instrument",
	})

	BytesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tek_bytes_sent_total",
		Help: "Bytes written to the instrument link",
	})

	BytesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tek_bytes_received_total",
		Help: "Bytes read from the instrument link",
	})

	LinkErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tek_link_errors_total",
		Help: "Transport errors on the instrument link",
	})

	// Acquisitions
	Acquisitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tek_acquisitions_total",
			Help: "Curves transferred from the scope",
		},
		[]string{"source"},
	)

	OpcWait = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tek_opc_wait_seconds",
		Help:    "Time spent blocked on *OPC?",
		Buckets: []float64{.01, .05, .1, .5, 1, 2, 5, 10, 30, 60},
	})
)

var registerOnce sync.Once

// Register adds all collectors to the default prometheus registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			CommandsSent,
			Queries,
			BytesSent,
			BytesReceived,
			LinkErrors,
			Acquisitions,
			OpcWait,
		)
	})
}

// Handler returns the /metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
