package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// dbUp is 1 when the last ping to the user store succeeded, else 0.
	dbUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rentmail",
		Subsystem: "db",
		Name:      "up",
		Help:      "User store availability (1=up, 0=down).",
	})
	dbPingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rentmail",
		Subsystem: "db",
		Name:      "ping_seconds",
		Help:      "User store ping latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	redisUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rentmail",
		Subsystem: "redis",
		Name:      "up",
		Help:      "Redis availability (1=up, 0=down).",
	})
	redisPingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rentmail",
		Subsystem: "redis",
		Name:      "ping_seconds",
		Help:      "Redis ping latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// userCacheLookups counts user cache lookups by result (hit | miss | error).
	userCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rentmail",
		Subsystem: "users",
		Name:      "cache_lookups_total",
		Help:      "User cache lookups by result.",
	}, []string{"result"})
)

func setGauge(g prometheus.Gauge, up bool) {
	if up {
		g.Set(1)
		return
	}
	g.Set(0)
}

// SetDBUp sets the db_up gauge to 1/0.
func SetDBUp(up bool) { setGauge(dbUp, up) }

// ObserveDBPing records a database ping latency in seconds.
func ObserveDBPing(seconds float64) { dbPingSeconds.Observe(seconds) }

// SetRedisUp sets the redis_up gauge to 1/0.
func SetRedisUp(up bool) { setGauge(redisUp, up) }

// ObserveRedisPing records a redis ping latency in seconds.
func ObserveRedisPing(seconds float64) { redisPingSeconds.Observe(seconds) }

// IncUserCache records a cache lookup outcome.
func IncUserCache(result string) { userCacheLookups.WithLabelValues(orUnknown(result)).Inc() }
