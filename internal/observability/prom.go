package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eventprint"

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// rendering
	RenderDuration  *prometheus.HistogramVec
	RenderResults   *prometheus.CounterVec
	ElementsSkipped *prometheus.CounterVec
	AssetFetches    *prometheus.CounterVec

	// printers
	PrintDuration *prometheus.HistogramVec
	PrintResults  *prometheus.CounterVec

	TemplateCache *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),

		RenderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "render",
				Name:      "duration_seconds",
				Help:      "Render latency by output kind, including asset prefetch.",
				Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"kind", "result"},
		),
		RenderResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "render",
				Name:      "results_total",
				Help:      "Render outcomes by output kind.",
			},
			[]string{"kind", "result"}, // result=ok|INVALID_INPUT|RENDER_FAILED
		),
		ElementsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "render",
				Name:      "elements_skipped_total",
				Help:      "Template elements left out of an output.",
			},
			[]string{"kind", "element_type"},
		),
		AssetFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "render",
				Name:      "asset_fetches_total",
				Help:      "Image asset fetches by result.",
			},
			[]string{"result"}, // result=ok|error|unsupported
		),

		PrintDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "printer",
				Name:      "send_duration_seconds",
				Help:      "Time to connect to a printer and write a label.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
			},
			[]string{"result"},
		),
		PrintResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "printer",
				Name:      "sends_total",
				Help:      "Printer deliveries by result.",
			},
			[]string{"result"}, // result=ok|timeout|unreachable|circuit_open|canceled
		),

		TemplateCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "templates",
				Name:      "cache_lookups_total",
				Help:      "Template cache lookups by tier and outcome.",
			},
			[]string{"tier", "outcome"}, // tier=memory|redis, outcome=hit|miss
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.RenderDuration, p.RenderResults, p.ElementsSkipped, p.AssetFetches,
		p.PrintDuration, p.PrintResults,
		p.TemplateCache,
	)

	return p
}

func (p *Prom) ObserveRender(kind, result string, d time.Duration) {
	p.RenderDuration.WithLabelValues(kind, result).Observe(d.Seconds())
	p.RenderResults.WithLabelValues(kind, result).Inc()
}

func (p *Prom) ObserveSkip(kind, elementType string) {
	p.ElementsSkipped.WithLabelValues(kind, elementType).Inc()
}

func (p *Prom) ObservePrint(result string, d time.Duration) {
	p.PrintDuration.WithLabelValues(result).Observe(d.Seconds())
	p.PrintResults.WithLabelValues(result).Inc()
}

func (p *Prom) ObserveAsset(result string) {
	p.AssetFetches.WithLabelValues(result).Inc()
}

func (p *Prom) ObserveCache(tier string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	p.TemplateCache.WithLabelValues(tier, outcome).Inc()
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only known after routing
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}
