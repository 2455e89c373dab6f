package dispatch

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/orbas1/pstore/internal/httpparse"
)

// Metrics holds the counters and gauges pstore exposes through
// "/cmd/metrics", one registry per process.
type Metrics struct {
	registry      *prometheus.Registry
	TxCommits     prometheus.Counter
	WSConnections prometheus.Gauge
	HTTPRequests  *prometheus.CounterVec
}

// NewMetrics builds a Metrics with all of pstore's counters registered
// against a private registry, so that a unit test building more than one
// Dispatcher never collides on prometheus's global default registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TxCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pstore_tx_commits_total",
			Help: "Total number of committed transactions.",
		}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pstore_ws_connections",
			Help: "Number of currently open WebSocket connections.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pstore_http_requests_total",
			Help: "Total number of HTTP requests served, by path.",
		}, []string{"path"}),
	}
	m.registry.MustRegister(m.TxCommits, m.WSConnections, m.HTTPRequests)
	return m
}

// Command returns the "/cmd/metrics" handler, rendering m's registry in
// Prometheus text exposition format.
func (m *Metrics) Command() Command {
	return func(map[string]string) string {
		families, err := m.registry.Gather()
		if err != nil {
			return httpparse.ReportError(err, "/cmd/metrics")
		}

		var body strings.Builder
		enc := expfmt.NewEncoder(&body, expfmt.NewFormat(expfmt.TypeTextPlain))
		for _, mf := range families {
			if err := enc.Encode(mf); err != nil {
				return httpparse.ReportError(err, "/cmd/metrics")
			}
		}

		content := body.String()
		now := httpparse.HTTPDate(time.Now())
		headers := httpparse.BuildHeaders([]httpparse.Header{
			{Name: "Connection", Value: "close"},
			{Name: "Content-length", Value: strconv.Itoa(len(content))},
			{Name: "Content-type", Value: string(expfmt.NewFormat(expfmt.TypeTextPlain))},
			{Name: "Date", Value: now},
			{Name: "Last-Modified", Value: now},
		})
		return httpparse.BuildStatusLine(httpparse.StatusOK, "") + headers + content
	}
}
