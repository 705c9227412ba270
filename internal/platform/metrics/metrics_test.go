package metrics

import (
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRecordRedisStats_AddsDeltas(t *testing.T) {
	p := New(prometheus.NewRegistry())

	p.RecordRedisStats(&redis.PoolStats{Hits: 5, Misses: 1, TotalConns: 3, IdleConns: 2})
	p.RecordRedisStats(&redis.PoolStats{Hits: 8, Misses: 1, TotalConns: 4, IdleConns: 1})

	assert.Equal(t, 8.0, testutil.ToFloat64(p.RedisHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.RedisMisses))
	assert.Equal(t, 4.0, testutil.ToFloat64(p.RedisTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.RedisIdle))
}

func TestRecordRedisStats_NilIsIgnored(t *testing.T) {
	p := New(prometheus.NewRegistry())
	p.RecordRedisStats(nil)
	assert.Equal(t, 0.0, testutil.ToFloat64(p.RedisHits))
}

func TestRecordDBStats(t *testing.T) {
	p := New(prometheus.NewRegistry())
	p.RecordDBStats(sql.DBStats{OpenConnections: 4, InUse: 1, Idle: 3, WaitCount: 7})

	assert.Equal(t, 4.0, testutil.ToFloat64(p.DBOpenConns))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.DBInUseConns))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.DBIdleConns))
	assert.Equal(t, 7.0, testutil.ToFloat64(p.DBWaitCount))
}
