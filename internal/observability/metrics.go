package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	// ScrapeInterval paces the database and redis collectors.
	ScrapeInterval time.Duration `yaml:"scrape_interval"`
}

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	tagRuns     *CounterVec
	tagStep     *HistogramVec
	tagRepairs  *CounterVec
	progress    *GaugeVec
	aggregation *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process metrics, or nil before Init. Every method is
// nil-safe so callers never check.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// NewMetrics builds an unregistered set, used directly by tests.
func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("pcmm_api_requests_total", "HTTP requests by method, route and status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("pcmm_api_request_duration_seconds", "HTTP request latency.", []string{"method", "route", "status"}, nil),
		apiInflight: NewGauge("pcmm_api_inflight_requests", "HTTP requests currently being served."),

		tagRuns:     NewCounterVec("pcmm_tag_runs_total", "Finished tag runs by kind and final status.", []string{"kind", "status"}),
		tagStep:     NewHistogramVec("pcmm_tag_step_duration_seconds", "Tag saga step latency.", []string{"kind", "step", "status"}, []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}),
		tagRepairs:  NewCounterVec("pcmm_tag_repairs_total", "Tag runs settled by repair, by outcome.", []string{"outcome"}),
		progress:    NewGaugeVec("pcmm_model_progress", "Last computed current progress by model.", []string{"model", "tag"}),
		aggregation: NewCounterVec("pcmm_aggregations_total", "Aggregation reports by mode and completeness.", []string{"mode", "complete"}),

		dbStats:   NewGaugeVec("pcmm_db_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp:   NewGauge("pcmm_redis_up", "1 when the node cache redis answered the last ping."),
		redisPing: NewGauge("pcmm_redis_ping_seconds", "Latency of the last redis ping."),
	}
}

func (m *Metrics) collectors() []collector {
	return []collector{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.tagRuns, m.tagStep, m.tagRepairs, m.progress, m.aggregation,
		m.dbStats, m.redisUp, m.redisPing,
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", m.WriteHTTP)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range m.collectors() {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveTagStep(kind, step, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.tagStep.Observe(dur.Seconds(), kind, step, status)
}

func (m *Metrics) IncTagRun(kind, status string) {
	if m == nil {
		return
	}
	m.tagRuns.Inc(kind, status)
}

func (m *Metrics) IncTagRepair(outcome string) {
	if m == nil {
		return
	}
	m.tagRepairs.Inc(outcome)
}

// ObserveProgress records the current score of a model; tag is "active" for live data.
func (m *Metrics) ObserveProgress(modelID, tag string, current int) {
	if m == nil {
		return
	}
	if tag == "" {
		tag = "active"
	}
	m.progress.Set(float64(current), modelID, tag)
}

func (m *Metrics) IncAggregation(mode string, complete bool) {
	if m == nil {
		return
	}
	c := "false"
	if complete {
		c = "true"
	}
	m.aggregation.Inc(mode, c)
}

func scrapeEvery(d time.Duration) time.Duration {
	if d <= 0 {
		return 15 * time.Second
	}
	return d
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, every time.Duration) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(scrapeEvery(every))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string, every time.Duration) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(scrapeEvery(every))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
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
