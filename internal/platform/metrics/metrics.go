// Package metrics exports connection pool statistics for the store backends.
package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// Pools holds connection pool gauges and counters for Postgres and Redis.
type Pools struct {
	DBOpenConns   prometheus.Gauge
	DBInUseConns  prometheus.Gauge
	DBIdleConns   prometheus.Gauge
	DBWaitCount   prometheus.Gauge
	RedisHits     prometheus.Counter
	RedisMisses   prometheus.Counter
	RedisTimeouts prometheus.Counter
	RedisTotal    prometheus.Gauge
	RedisIdle     prometheus.Gauge
	RedisStale    prometheus.Counter

	lastRedis *redis.PoolStats
}

// New registers the pool collectors with reg.
func New(reg prometheus.Registerer) *Pools {
	f := promauto.With(reg)
	return &Pools{
		DBOpenConns: f.NewGauge(prometheus.GaugeOpts{
			Name: "mastery_db_pool_open_conns",
			Help: "Number of established database connections",
		}),
		DBInUseConns: f.NewGauge(prometheus.GaugeOpts{
			Name: "mastery_db_pool_in_use_conns",
			Help: "Number of database connections currently in use",
		}),
		DBIdleConns: f.NewGauge(prometheus.GaugeOpts{
			Name: "mastery_db_pool_idle_conns",
			Help: "Number of idle database connections",
		}),
		DBWaitCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "mastery_db_pool_wait_count",
			Help: "Total number of connections waited for",
		}),
		RedisHits: f.NewCounter(prometheus.CounterOpts{
			Name: "mastery_redis_pool_hits_total",
			Help: "Number of times a connection was found in the pool",
		}),
		RedisMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "mastery_redis_pool_misses_total",
			Help: "Number of times a connection was not found in the pool",
		}),
		RedisTimeouts: f.NewCounter(prometheus.CounterOpts{
			Name: "mastery_redis_pool_timeouts_total",
			Help: "Number of times a connection was not obtained due to timeout",
		}),
		RedisTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "mastery_redis_pool_total_conns",
			Help: "Number of total connections in the pool",
		}),
		RedisIdle: f.NewGauge(prometheus.GaugeOpts{
			Name: "mastery_redis_pool_idle_conns",
			Help: "Number of idle connections in the pool",
		}),
		RedisStale: f.NewCounter(prometheus.CounterOpts{
			Name: "mastery_redis_pool_stale_conns_total",
			Help: "Number of stale connections removed from the pool",
		}),
	}
}

func (p *Pools) RecordDBStats(stats sql.DBStats) {
	p.DBOpenConns.Set(float64(stats.OpenConnections))
	p.DBInUseConns.Set(float64(stats.InUse))
	p.DBIdleConns.Set(float64(stats.Idle))
	p.DBWaitCount.Set(float64(stats.WaitCount))
}

// RecordRedisStats updates the Redis collectors. go-redis reports cumulative
// counters, so only the delta since the previous call is added.
// Not safe for concurrent use; call it from a single ticker goroutine.
func (p *Pools) RecordRedisStats(stats *redis.PoolStats) {
	if stats == nil {
		return
	}
	p.RedisTotal.Set(float64(stats.TotalConns))
	p.RedisIdle.Set(float64(stats.IdleConns))

	var last redis.PoolStats
	if p.lastRedis != nil {
		last = *p.lastRedis
	}
	addDelta(p.RedisHits, stats.Hits, last.Hits)
	addDelta(p.RedisMisses, stats.Misses, last.Misses)
	addDelta(p.RedisTimeouts, stats.Timeouts, last.Timeouts)
	addDelta(p.RedisStale, stats.StaleConns, last.StaleConns)

	snapshot := *stats
	p.lastRedis = &snapshot
}

func addDelta(c prometheus.Counter, current, previous uint32) {
	if current > previous {
		c.Add(float64(current - previous))
	}
}
