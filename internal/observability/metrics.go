package observability

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

const namespace = "oceanml"

// Lease decision outcomes.
const (
	LeaseGranted  = "granted"
	LeaseDenied   = "denied"
	LeaseConflict = "conflict"
	LeaseError    = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	leaseDecisions   *prometheus.CounterVec
	annotationOps    *prometheus.CounterVec
	annotationOpTime *prometheus.HistogramVec
	storageBootstrap *prometheus.CounterVec
	redisUp          prometheus.Gauge
	redisPing        prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

// Current returns the process-wide metrics, or nil when metrics are off.
// Every method is nil-safe.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("prometheus metrics enabled")
		}
	})
	return instance
}

// New builds a Metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency in seconds by method/route/status.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_inflight_requests",
			Help:      "In-flight API requests.",
		}),
		leaseDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lease_decisions_total",
			Help:      "Annotation lease acquire decisions by outcome.",
		}, []string{"outcome"}),
		annotationOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotation_operations_total",
			Help:      "Annotation lifecycle operations by op/status.",
		}, []string{"op", "status"}),
		annotationOpTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "annotation_operation_duration_seconds",
			Help:      "Annotation lifecycle operation latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		storageBootstrap: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "object_storage_bootstrap_total",
			Help:      "Object storage bootstrap attempts by mode/status/code.",
		}, []string{"mode", "status", "code"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "redis_up",
			Help:      "1 when the last Redis ping succeeded.",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "redis_ping_seconds",
			Help:      "Latency of the last Redis ping.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.leaseDecisions, m.annotationOps, m.annotationOpTime,
		m.storageBootstrap, m.redisUp, m.redisPing,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncLeaseDecision(outcome string) {
	if m == nil {
		return
	}
	m.leaseDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAnnotationOp(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.annotationOps.WithLabelValues(op, status).Inc()
	m.annotationOpTime.WithLabelValues(op).Observe(dur.Seconds())
}

func (m *Metrics) IncObjectStorageBootstrap(mode, status, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "none"
	}
	m.storageBootstrap.WithLabelValues(mode, status, code).Inc()
}

// RegisterDBStats exports database/sql pool stats for db.
func (m *Metrics) RegisterDBStats(log *logger.Logger, db *gorm.DB, name string) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: db stats unavailable", "error", err)
		}
		return
	}
	if err := m.registry.Register(collectors.NewDBStatsCollector(sqlDB, name)); err != nil && log != nil {
		log.Warn("metrics: db stats register failed", "error", err)
	}
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
