package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "uxwriter"

// Generation outcomes.
const (
	OutcomeSuccess            = "success"
	OutcomeEmptyPrompt        = "empty_prompt"
	OutcomeInsufficientCredit = "insufficient_credits"
	OutcomeMissingCredential  = "missing_credential"
	OutcomeProviderError      = "provider_error"
	OutcomeTransportError     = "transport_error"
	OutcomeFailed             = "failed"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	generations     *prometheus.CounterVec
	creditsDebited  prometheus.Counter
	creditsCredited prometheus.Counter
	purchases       *prometheus.CounterVec
	httpRequests    *prometheus.HistogramVec
}

// New регистрирует коллекторы сервиса и стандартные метрики процесса.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "studio",
			Name:      "generations_total",
			Help:      "Generation attempts by category and outcome.",
		}, []string{"category", "outcome"}),
		creditsDebited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "credits_debited_total",
			Help:      "Credits spent on generations.",
		}),
		creditsCredited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "credits_purchased_total",
			Help:      "Credits added by purchases.",
		}),
		purchases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "purchases_total",
			Help:      "Completed plan purchases by plan id.",
		}, []string{"plan"}),
		httpRequests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Registry возвращает реестр коллекторов.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler отдает метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveGeneration(category, outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(category, outcome).Inc()
}

func (m *Metrics) ObserveDebit(amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.creditsDebited.Add(float64(amount))
}

func (m *Metrics) ObservePurchase(planID int, amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.creditsCredited.Add(float64(amount))
	m.purchases.WithLabelValues(strconv.Itoa(planID)).Inc()
}

// Middleware измеряет длительность HTTP-запросов по шаблону маршрута.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			m.httpRequests.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
