package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	EligibilityChecksTotal *prometheus.CounterVec
	LoansOriginatedTotal   *prometheus.CounterVec
	CustomersCreatedTotal  prometheus.Counter
	DebtDriftDetectedTotal prometheus.Counter
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_approval_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		EligibilityChecksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_approval_eligibility_checks_total",
				Help: "Total number of eligibility evaluations by outcome.",
			},
			[]string{"outcome"},
		),
		LoansOriginatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_approval_loans_originated_total",
				Help: "Total number of loan origination attempts by status.",
			},
			[]string{"status"},
		),
		CustomersCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_approval_customers_created_total",
				Help: "Total number of customers successfully registered.",
			},
		),
		DebtDriftDetectedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_approval_debt_drift_detected_total",
				Help: "Customers whose stored debt diverged from their loan principal sum.",
			},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordEligibilityCheck(outcome string) {
	Business.EligibilityChecksTotal.WithLabelValues(outcome).Inc()
}

func RecordLoanOrigination(status string) {
	Business.LoansOriginatedTotal.WithLabelValues(status).Inc()
}

func RecordCustomerCreated() {
	Business.CustomersCreatedTotal.Inc()
}

func RecordDebtDrift() {
	Business.DebtDriftDetectedTotal.Inc()
}
