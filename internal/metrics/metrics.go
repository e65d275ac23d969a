package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReconcileMetrics 定义交易对账监控指标
type ReconcileMetrics struct {
	Cycles       prometheus.Counter
	CycleSeconds prometheus.Histogram
	Transitions  *prometheus.CounterVec
	StatusErrors *prometheus.CounterVec
	Timeouts     *prometheus.CounterVec
	Pending      *prometheus.GaugeVec
}

// BroadcastMetrics 定义广播监控指标
type BroadcastMetrics struct {
	Total *prometheus.CounterVec
}

// NewReconcileMetrics registers the reconciler collectors on reg.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	factory := promauto.With(reg)

	return &ReconcileMetrics{
		Cycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "wallet_reconcile_cycles_total",
			Help: "The total number of reconciliation cycles",
		}),
		CycleSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wallet_reconcile_cycle_seconds",
			Help:    "Duration of reconciliation cycles",
			Buckets: prometheus.DefBuckets,
		}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_reconcile_transitions_total",
			Help: "Transaction state transitions applied by the reconciler",
		}, []string{"chain", "state"}),
		StatusErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_reconcile_status_errors_total",
			Help: "Status queries that failed and were retried on the next cycle",
		}, []string{"chain"}),
		Timeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_reconcile_timeouts_total",
			Help: "Pending transactions failed locally after the chain timeout",
		}, []string{"chain"}),
		Pending: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wallet_reconcile_pending",
			Help: "Pending transactions seen in the last cycle",
		}, []string{"chain"}),
	}
}

// NewBroadcastMetrics registers the broadcast collectors on reg.
func NewBroadcastMetrics(reg prometheus.Registerer) *BroadcastMetrics {
	return &BroadcastMetrics{
		Total: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_broadcast_total",
			Help: "Broadcast attempts by result",
		}, []string{"chain", "result"}),
	}
}
