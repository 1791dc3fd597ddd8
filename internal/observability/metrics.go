package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/platform/logger"
)

// Metrics is the process-wide write metrics registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	writes        *CounterVec
	writeLatency  *HistogramVec
	writeConflict *CounterVec
	writeRetry    *CounterVec
	dbPool        *GaugeVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		writes: NewCounterVec("analytics_writes_total", "Analytics writes by operation and outcome.", []string{"op", "status"}),
		writeLatency: NewHistogramVec(
			"analytics_write_duration_seconds",
			"Analytics write latency in seconds by operation.",
			[]string{"op"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		),
		writeConflict: NewCounterVec("analytics_write_conflicts_total", "Writes that lost a natural-key race.", []string{"op"}),
		writeRetry:    NewCounterVec("analytics_write_retryable_total", "Writes that failed with a transient error.", []string{"op"}),
		dbPool:        NewGaugeVec("analytics_db_pool", "database/sql pool statistics.", []string{"stat"}),
	}
}

func (m *Metrics) ObserveWrite(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	op = normalizeLabel(op)
	status = normalizeLabel(status)
	m.writes.Inc(op, status)
	m.writeLatency.Observe(dur.Seconds(), op)
}

func (m *Metrics) IncWriteConflict(op string) {
	if m == nil {
		return
	}
	m.writeConflict.Inc(normalizeLabel(op))
}

func (m *Metrics) IncWriteRetry(op string) {
	if m == nil {
		return
	}
	m.writeRetry.Inc(normalizeLabel(op))
}

// Writes returns the counted writes for op and status.
func (m *Metrics) Writes(op, status string) float64 {
	if m == nil {
		return 0
	}
	return m.writes.Value(normalizeLabel(op), normalizeLabel(status))
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []interface{ WritePrometheus(io.Writer) error }{
		m.writes, m.writeLatency, m.writeConflict, m.writeRetry, m.dbPool,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

// StartServer exposes the registry until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
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

// CollectPoolStats samples the connection pool once.
func (m *Metrics) CollectPoolStats(db *gorm.DB) error {
	if m == nil || db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	stats := sqlDB.Stats()
	m.dbPool.Set(float64(stats.OpenConnections), "open_connections")
	m.dbPool.Set(float64(stats.InUse), "in_use")
	m.dbPool.Set(float64(stats.Idle), "idle")
	m.dbPool.Set(float64(stats.WaitCount), "wait_count")
	m.dbPool.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
	m.dbPool.Set(float64(stats.MaxOpenConnections), "max_open_connections")
	return nil
}

// StartPoolCollector samples pool statistics every interval until ctx is done.
func (m *Metrics) StartPoolCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.CollectPoolStats(db); err != nil && log != nil {
					log.Warn("metrics: pool stats unavailable", "error", err)
				}
			}
		}
	}()
}

func normalizeLabel(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
