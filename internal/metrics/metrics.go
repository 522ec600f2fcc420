package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecomove_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecomove_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	WalletOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecomove_wallet_operations_total",
			Help: "Committed wallet credits and debits",
		},
		[]string{"type", "category"},
	)

	WalletVolume = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecomove_wallet_volume_units_total",
			Help: "Absolute value moved through the ledger, in the smallest currency unit",
		},
		[]string{"type"},
	)

	InsufficientFundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ecomove_wallet_insufficient_funds_total",
			Help: "Debits refused because the balance was too low",
		},
	)

	PromoApplicationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecomove_promo_applications_total",
			Help: "Promo code applications by outcome",
		},
		[]string{"result"},
	)

	EcoHabitDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecomove_ecohabit_decisions_total",
			Help: "Admin decisions on eco-habit declarations",
		},
		[]string{"decision"},
	)

	CarbonCreditsMinted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ecomove_carbon_credits_minted_units_total",
			Help: "Currency units credited for validated eco-habits",
		},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecomove_payments_total",
			Help: "Checkout attempts by outcome",
		},
		[]string{"status", "with_promo"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecomove_notifications_total",
			Help: "Notification events handed to the delivery queue",
		},
		[]string{"type", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecomove_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordWalletOperation counts a committed ledger entry. opType is "credit" or "debit".
func RecordWalletOperation(opType, category string, amount int64) {
	WalletOperationsTotal.WithLabelValues(opType, category).Inc()
	if amount < 0 {
		amount = -amount
	}
	WalletVolume.WithLabelValues(opType).Add(float64(amount))
}

func RecordInsufficientFunds() {
	InsufficientFundsTotal.Inc()
}

func RecordPromoApplication(result string) {
	PromoApplicationsTotal.WithLabelValues(result).Inc()
}

func RecordEcoHabitDecision(decision string) {
	EcoHabitDecisionsTotal.WithLabelValues(decision).Inc()
}

func RecordCarbonCredit(amount int64) {
	CarbonCreditsMinted.Add(float64(amount))
}

func RecordPayment(status string, withPromo bool) {
	promo := "false"
	if withPromo {
		promo = "true"
	}
	PaymentsTotal.WithLabelValues(status, promo).Inc()
}

func RecordNotification(eventType, status string) {
	NotificationsTotal.WithLabelValues(eventType, status).Inc()
}
