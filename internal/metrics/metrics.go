package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/pkg/common"
	"github.com/OFFIS-RIT/dunning/backend/pkg/loader"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dunning"

var (
	// loadRuns counts ingestion cycles.
	// Labels: outcome (success, store_unavailable, malformed_source, error)
	loadRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "loader",
		Name:      "runs_total",
		Help:      "Total ingestion cycles by outcome",
	}, []string{"outcome"})

	// loadEntities counts nodes created by ingestion.
	// Labels: entity (client, debt, agent, interaction, payment, promise, renegotiation)
	loadEntities = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "loader",
		Name:      "entities_total",
		Help:      "Total graph entities created by ingestion",
	}, []string{"entity"})

	loadRecordErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "loader",
		Name:      "record_errors_total",
		Help:      "Total source records rejected during ingestion",
	})

	loadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "loader",
		Name:      "duration_seconds",
		Help:      "Duration of ingestion cycles in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	// httpRequests counts handled requests.
	// Labels: method, route (echo path template), status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// LoadObserver records ingestion cycles. It satisfies loader.Observer.
type LoadObserver struct{}

func NewLoadObserver() LoadObserver {
	return LoadObserver{}
}

func (LoadObserver) ObserveLoad(stats common.LoadStats, elapsed time.Duration, err error) {
	loadRuns.WithLabelValues(outcome(err)).Inc()
	loadDuration.Observe(elapsed.Seconds())
	loadRecordErrors.Add(float64(len(stats.Errors)))

	loadEntities.WithLabelValues("client").Add(float64(stats.ClientsLoaded))
	loadEntities.WithLabelValues("debt").Add(float64(stats.DebtsLoaded))
	loadEntities.WithLabelValues("agent").Add(float64(stats.AgentsLoaded))
	loadEntities.WithLabelValues("interaction").Add(float64(stats.InteractionsLoaded))
	loadEntities.WithLabelValues("payment").Add(float64(stats.PaymentsLoaded))
	loadEntities.WithLabelValues("promise").Add(float64(stats.PromisesLoaded))
	loadEntities.WithLabelValues("renegotiation").Add(float64(stats.RenegotiationsLoaded))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, loader.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, loader.ErrMalformedSource):
		return "malformed_source"
	default:
		return "error"
	}
}

// Middleware records request counts and latency per route template.
func Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request().Method

		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the default registry.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
