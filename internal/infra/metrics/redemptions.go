package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		redemptionsTotal,
		grantedMonths,
	)
}

// Outcome labels for redemptionsTotal.
const (
	OutcomeSuccess         = "success"
	OutcomeDegraded        = "degraded_success"
	OutcomeEmptyCode       = "empty_code"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeInvalidCode     = "invalid_code"
	OutcomeExhausted       = "code_exhausted"
	OutcomeAlreadyRedeemed = "already_redeemed"
	OutcomeStorageError    = "storage_error"
	OutcomeRateLimited     = "rate_limited"
)

var (
	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_redemptions_total",
			Help: "Total redemption attempts by outcome.",
		},
		[]string{"outcome"},
	)

	grantedMonths = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "referral_granted_months",
			Help:    "Entitlement window granted by successful redemptions, in months.",
			Buckets: []float64{1, 2, 3, 6, 12, 24},
		},
	)
)

func IncRedemption(outcome string) {
	redemptionsTotal.WithLabelValues(outcome).Inc()
}

func ObserveGrantedMonths(months int) {
	grantedMonths.Observe(float64(months))
}
