// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playhub_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playhub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ReactionOperations counts reaction ledger calls by operation and outcome.
	ReactionOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playhub_reaction_operations_total",
		Help: "Reaction operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// ReactionConflicts counts write races reconciled by re-reading the current row.
	ReactionConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playhub_reaction_conflicts_total",
		Help: "Reaction write conflicts resolved by reconciliation",
	}, []string{"kind"})

	// GamePlays counts recorded game plays.
	GamePlays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playhub_game_plays_total",
		Help: "Total number of recorded game plays",
	})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playhub_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playhub_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
