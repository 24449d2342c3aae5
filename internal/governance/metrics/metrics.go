package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the governance engine.
// All methods are safe on a nil receiver so the engine runs without metrics.
type Metrics struct {
	OperationDuration  *prometheus.HistogramVec
	TopicsCreated      prometheus.Counter
	TopicsClosed       *prometheus.CounterVec
	VotesCast          *prometheus.CounterVec
	QuotaPayments      prometheus.Counter
	TreasuryTransfers  prometheus.Counter
	TreasuryBalance    prometheus.Gauge
	NotificationsTotal *prometheus.CounterVec
}

// New creates the governance metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "condo_governance_operation_duration_seconds",
			Help:    "Duration of governance write operations by result",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation", "result"}),
		TopicsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "condo_topics_created_total",
			Help: "Total number of topics created",
		}),
		TopicsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "condo_topics_closed_total",
			Help: "Total number of closed votings by outcome and category",
		}, []string{"status", "category"}),
		VotesCast: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "condo_votes_cast_total",
			Help: "Total number of ballots by option",
		}, []string{"option"}),
		QuotaPayments: factory.NewCounter(prometheus.CounterOpts{
			Name: "condo_quota_payments_total",
			Help: "Total number of accepted quota payments",
		}),
		TreasuryTransfers: factory.NewCounter(prometheus.CounterOpts{
			Name: "condo_treasury_transfers_total",
			Help: "Total number of treasury releases",
		}),
		TreasuryBalance: factory.NewGauge(prometheus.GaugeOpts{
			Name: "condo_treasury_balance_wei",
			Help: "Treasury balance after the last financial operation",
		}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "condo_notifications_published_total",
			Help: "Total governance notifications by type and result",
		}, []string{"type", "result"}),
	}
}

// ObserveOperation records the duration of a write operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.OperationDuration.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementTopicCreated() {
	if m == nil {
		return
	}
	m.TopicsCreated.Inc()
}

func (m *Metrics) IncrementTopicClosed(status, category string) {
	if m == nil {
		return
	}
	m.TopicsClosed.WithLabelValues(status, category).Inc()
}

func (m *Metrics) IncrementVote(option string) {
	if m == nil {
		return
	}
	m.VotesCast.WithLabelValues(option).Inc()
}

func (m *Metrics) IncrementQuotaPaid() {
	if m == nil {
		return
	}
	m.QuotaPayments.Inc()
}

func (m *Metrics) IncrementTransfer() {
	if m == nil {
		return
	}
	m.TreasuryTransfers.Inc()
}

// SetBalance records the treasury balance in wei. Large balances lose
// precision in the float gauge; the ledger stays exact.
func (m *Metrics) SetBalance(wei uint64) {
	if m == nil {
		return
	}
	m.TreasuryBalance.Set(float64(wei))
}

func (m *Metrics) IncrementNotification(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.NotificationsTotal.WithLabelValues(kind, result).Inc()
}
