package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// Sessions
	SessionsCreated   prometheus.Counter
	SessionsDestroyed prometheus.Counter
	SessionLookups    *prometheus.CounterVec

	// Chat relay
	ChatRequests *prometheus.CounterVec
	ChatDuration prometheus.Histogram
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "spendsmart",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "spendsmart",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// Sane initial defaults
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "spendsmart",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "spendsmart",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "spendsmart",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),

		SessionsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "spendsmart",
				Subsystem: "sessions",
				Name:      "created_total",
				Help:      "Sessions created at login/signup.",
			},
		),
		SessionsDestroyed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "spendsmart",
				Subsystem: "sessions",
				Name:      "destroyed_total",
				Help:      "Sessions destroyed at logout.",
			},
		),
		SessionLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "spendsmart",
				Subsystem: "sessions",
				Name:      "lookups_total",
				Help:      "Session cookie lookups by result.",
			},
			[]string{"result"}, // result=hit|miss|error
		),

		ChatRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "spendsmart",
				Subsystem: "chat",
				Name:      "requests_total",
				Help:      "Chat relay calls by result.",
			},
			[]string{"result"}, // result=ok|empty|upstream_error
		),
		ChatDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "spendsmart",
				Subsystem: "chat",
				Name:      "duration_seconds",
				Help:      "Latency of the upstream generate call.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.DbQueryDuration, p.DbErrorsTotal, p.SessionsCreated, p.SessionsDestroyed, p.SessionLookups, p.ChatRequests, p.ChatDuration)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
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
