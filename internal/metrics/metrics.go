// Package metrics exposes Prometheus instruments for the staking ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingostake_rpc_requests_total",
			Help: "Total number of RPC requests",
		},
		[]string{"procedure", "code"},
	)

	RPCRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingostake_rpc_request_duration_seconds",
			Help:    "Duration of RPC requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"procedure"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingostake_rate_limited_total",
			Help: "Total number of RPCs rejected by the rate limiter",
		},
		[]string{"procedure"},
	)

	// Ledger metrics
	GroupsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingostake_groups_created_total",
			Help: "Total number of groups created",
		},
		[]string{"mode"},
	)

	StakesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingostake_stakes_total",
			Help: "Total number of stake attempts",
		},
		[]string{"status"},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingostake_settlements_total",
			Help: "Total number of settlement attempts",
		},
		[]string{"mode", "status"},
	)

	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingostake_claims_total",
			Help: "Total number of claim attempts",
		},
		[]string{"status"},
	)

	AttestationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingostake_attestations_total",
			Help: "Total number of completion attestations submitted",
		},
		[]string{"status"},
	)

	// Vault metrics
	VaultOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingostake_vault_operations_total",
			Help: "Total number of vault facility calls",
		},
		[]string{"operation", "status"},
	)

	VaultOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingostake_vault_operation_duration_seconds",
			Help:    "Duration of vault facility calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"operation"},
	)

	SweeperRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingostake_sweeper_runs_total",
			Help: "Total number of expired-group sweeps",
		},
		[]string{"status"},
	)
)

// Status returns the label value for an operation outcome.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
