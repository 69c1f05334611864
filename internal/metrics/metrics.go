// Package metrics define los collectors Prometheus del servicio.
// Los collectors existen siempre; Register los expone en un registry.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FlowOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "actionlink_flow_outcomes_total",
		Help: "Outcomes terminales por flow, estado y clase de error",
	}, []string{"flow", "state", "kind"})

	ProviderCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "actionlink_provider_call_duration_seconds",
		Help:    "Latencia de las llamadas al proveedor de identidad",
		Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"op", "result"})

	PendingStoreOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "actionlink_pending_store_ops_total",
		Help: "Operaciones sobre el PendingEmailStore por backend y resultado",
	}, []string{"backend", "op", "result"})

	SignInLinksRequested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "actionlink_signin_links_requested_total",
		Help: "Pedidos de magic link por resultado",
	}, []string{"result"})

	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo por método y ruta",
	}, []string{"method", "path"})
)

// Register registra los collectors en reg (o el default si es nil) y devuelve el handler de /metrics.
// pool es opcional: si no es nil se exponen gauges del pool de Postgres.
func Register(reg prometheus.Registerer, pool *pgxpool.Pool) (http.Handler, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		FlowOutcomes, ProviderCallDuration, PendingStoreOps, SignInLinksRequested,
		httpRequestsTotal, httpRequestDuration, httpInflight,
	}
	if pool != nil {
		collectors = append(collectors, newPoolCollector(pool))
	}
	for _, c := range collectors {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{}), nil
	}
	return promhttp.Handler(), nil
}

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}

// ObserveOutcome cuenta un outcome terminal.
func ObserveOutcome(flow, state, kind string) {
	if kind == "" {
		kind = "none"
	}
	FlowOutcomes.WithLabelValues(flow, state, kind).Inc()
}

// ObserveProviderCall registra la latencia de una llamada al proveedor.
func ObserveProviderCall(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ProviderCallDuration.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
}

// ObservePendingOp cuenta una operación del PendingEmailStore.
func ObservePendingOp(backend, op, result string) {
	PendingStoreOps.WithLabelValues(backend, op, result).Inc()
}

// poolCollector expone gauges del pool pgx del PendingEmailStore.
type poolCollector struct {
	pool         *pgxpool.Pool
	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newPoolCollector(pool *pgxpool.Pool) *poolCollector {
	return &poolCollector{
		pool:         pool,
		acquiredDesc: prometheus.NewDesc("pg_pool_acquired", "Conexiones adquiridas", nil, nil),
		idleDesc:     prometheus.NewDesc("pg_pool_idle", "Conexiones inactivas", nil, nil),
		totalDesc:    prometheus.NewDesc("pg_pool_total", "Conexiones totales", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
}
