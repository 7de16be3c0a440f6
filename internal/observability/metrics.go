package observability

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blecap",
			Subsystem: "protocol",
			Name:      "frames_total",
			Help:      "Frames decoded from the sniffer UART stream.",
		},
		[]string{"valid"},
	)
	packetsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blecap",
			Subsystem: "pipeline",
			Name:      "packets_published_total",
			Help:      "Valid packets handed to the consumer channel.",
		},
	)
	readErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blecap",
			Subsystem: "serial",
			Name:      "read_errors_total",
			Help:      "Failed reads from the serial transport.",
		},
	)
	reconnectAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blecap",
			Subsystem: "serial",
			Name:      "reconnect_attempts_total",
			Help:      "Failed attempts to open the serial transport.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesDecoded, packetsPublished, readErrors, reconnectAttempts)
	})
}

func RecordFrame(valid bool) {
	RegisterMetrics()
	framesDecoded.WithLabelValues(strconv.FormatBool(valid)).Inc()
}

func RecordPublish() {
	RegisterMetrics()
	packetsPublished.Inc()
}

func RecordReadError() {
	RegisterMetrics()
	readErrors.Inc()
}

func RecordReconnectAttempt() {
	RegisterMetrics()
	reconnectAttempts.Inc()
}

// ServeMetrics exposes the Prometheus endpoint on addr. It blocks, so
// callers run it on its own goroutine.
func ServeMetrics(addr string) error {
	RegisterMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
