package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatsCollector exports pgxpool statistics.
type PoolStatsCollector struct {
	stat    func() *pgxpool.Stat
	service string

	acquired      *prometheus.Desc
	idle          *prometheus.Desc
	total         *prometheus.Desc
	max           *prometheus.Desc
	acquireCount  *prometheus.Desc
	emptyAcquires *prometheus.Desc
	acquireWait   *prometheus.Desc
}

// NewPoolStatsCollector builds a collector for pool.
func NewPoolStatsCollector(pool *pgxpool.Pool, service string) *PoolStatsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(name, help, []string{"service"}, nil)
	}
	return &PoolStatsCollector{
		stat:          pool.Stat,
		service:       service,
		acquired:      desc("db_pool_acquired_connections", "Number of currently acquired connections"),
		idle:          desc("db_pool_idle_connections", "Number of currently idle connections"),
		total:         desc("db_pool_total_connections", "Total number of connections in the pool"),
		max:           desc("db_pool_max_connections", "Maximum number of connections allowed"),
		acquireCount:  desc("db_pool_acquire_count_total", "Total number of connection acquires"),
		emptyAcquires: desc("db_pool_empty_acquire_count_total", "Acquires that had to wait for a connection"),
		acquireWait:   desc("db_pool_acquire_duration_seconds_total", "Total time spent acquiring connections"),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.acquired, c.idle, c.total, c.max, c.acquireCount, c.emptyAcquires, c.acquireWait} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, c.service)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, c.service)
	}
	gauge(c.acquired, float64(s.AcquiredConns()))
	gauge(c.idle, float64(s.IdleConns()))
	gauge(c.total, float64(s.TotalConns()))
	gauge(c.max, float64(s.MaxConns()))
	counter(c.acquireCount, float64(s.AcquireCount()))
	counter(c.emptyAcquires, float64(s.EmptyAcquireCount()))
	counter(c.acquireWait, s.AcquireDuration().Seconds())
}

// RegisterPoolMetrics registers a collector for pool on reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool, service string) error {
	return reg.Register(NewPoolStatsCollector(pool, service))
}
