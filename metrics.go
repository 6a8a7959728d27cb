package showcase

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsSubsystem = "showcase"

// appMetrics is a per-App registry so several Apps can live in one process.
type appMetrics struct {
	registry       *prometheus.Registry
	uploads        *prometheus.CounterVec
	blobDeleteErrs prometheus.Counter
	orphansRemoved prometheus.Counter
}

func newAppMetrics() *appMetrics {
	reg := prometheus.NewRegistry()
	m := &appMetrics{
		registry: reg,
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "uploads_total",
			Help:      "Stored uploads by media prefix.",
		}, []string{"prefix"}),
		blobDeleteErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "blob_delete_failures_total",
			Help:      "Best-effort blob deletions that failed.",
		}),
		orphansRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "orphans_removed_total",
			Help:      "Unreferenced blobs removed by the sweep.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.uploads,
		m.blobDeleteErrs,
		m.orphansRemoved,
	)
	return m
}

func (m *appMetrics) middleware() echo.MiddlewareFunc {
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: m.registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	})
}

func (m *appMetrics) handler() echo.HandlerFunc {
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: m.registry,
	})
}
