package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		cashInsTotal,
		paymentsRevenueTotal,
	)
}

var (
	cashInsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cash_ins_total",
			Help: "Cash-in requests submitted to the gateway, labeled by outcome ('accepted', 'rejected', 'unavailable').",
		},
		[]string{"outcome"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of confirmed payments, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncCashIn(outcome string) {
	cashInsTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}
