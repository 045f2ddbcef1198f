package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	DirectivesParsed *prometheus.CounterVec
	DirectiveKeys    *prometheus.HistogramVec
	DirectiveReject  prometheus.Counter
	CacheLookups     *prometheus.CounterVec
	PresetReloads    *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fractal_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fractal_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "route"},
		),
		DirectivesParsed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fractal_directives_parsed_total",
				Help: "Directive strings parsed, by kind (include, exclude)",
			},
			[]string{"kind"},
		),
		DirectiveKeys: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fractal_directive_leaf_paths",
				Help:    "Number of leaf paths per parsed directive string",
				Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"kind"},
		),
		DirectiveReject: f.NewCounter(prometheus.CounterOpts{
			Name: "fractal_directives_rejected_total",
			Help: "Requests rejected because a directive exceeded directives.max_length",
		}),
		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fractal_directive_cache_lookups_total",
				Help: "Directive cache lookups by result (hit, miss)",
			},
			[]string{"result"},
		),
		PresetReloads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fractal_preset_reloads_total",
				Help: "Preset file reloads by result (ok, error)",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) CacheHit()  { m.CacheLookups.WithLabelValues("hit").Inc() }
func (m *Metrics) CacheMiss() { m.CacheLookups.WithLabelValues("miss").Inc() }

func (m *Metrics) ObserveDirective(kind string, leafPaths int) {
	m.DirectivesParsed.WithLabelValues(kind).Inc()
	m.DirectiveKeys.WithLabelValues(kind).Observe(float64(leafPaths))
}

func (m *Metrics) PresetReload(err error) {
	if err != nil {
		m.PresetReloads.WithLabelValues("error").Inc()
		return
	}
	m.PresetReloads.WithLabelValues("ok").Inc()
}

// Middleware records request count and latency per route template.
func Middleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())
		m.RequestsTotal.WithLabelValues(method, route, status).Inc()
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
