package metrics

import (
	"directory-pass/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		passesGrantedTotal,
		passesRevokedTotal,
		passesExpiredTotal,
		passesTotal,
	)
}

var (
	passesGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_passes_granted_total",
			Help: "Access passes granted or extended, labeled by kind ('grant', 'extend').",
		},
		[]string{"kind"},
	)

	passesRevokedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_passes_revoked_total",
			Help: "Access passes revoked, labeled by cause ('capture', 'admin').",
		},
		[]string{"cause"},
	)

	passesExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_passes_expired_total",
			Help: "Total number of passes processed by the expiry worker.",
		},
	)

	passesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "access_passes_total",
			Help: "Current number of access passes by status.",
		},
		[]string{"status"}, // 'active', 'expired', 'revoked'
	)
)

func IncPassGranted(kind string) {
	passesGrantedTotal.WithLabelValues(norm(kind)).Inc()
}

func IncPassRevoked(cause string) {
	passesRevokedTotal.WithLabelValues(norm(cause)).Inc()
}

func IncPassesExpired(count int64) {
	passesExpiredTotal.Add(float64(count))
}

func SetPassesTotal(counts map[model.PassStatus]int) {
	statuses := []model.PassStatus{
		model.PassStatusActive,
		model.PassStatusExpired,
		model.PassStatusRevoked,
	}
	for _, status := range statuses {
		if count, ok := counts[status]; ok {
			passesTotal.WithLabelValues(string(status)).Set(float64(count))
		}
	}
}
