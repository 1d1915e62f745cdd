// Package metrics exposes prometheus counters for the API and the schedule
// operations behind it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequests counts HTTP requests by route, method and status class.
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loanbook_api_requests_total",
			Help: "HTTP requests handled by the API",
		},
		[]string{"route", "method", "status"},
	)

	// LoansCreated counts loans created with their generated schedules.
	LoansCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loanbook_loans_created_total",
			Help: "Loans created together with their installment schedules",
		},
	)

	// SchedulesReconciled counts schedule edit applications by outcome.
	SchedulesReconciled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loanbook_schedule_reconciliations_total",
			Help: "Schedule edit reconciliations",
		},
		[]string{"outcome"},
	)

	// InstallmentsPaid counts installments and product payments marked paid.
	InstallmentsPaid = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loanbook_installments_paid_total",
			Help: "Installments and product payments marked as paid",
		},
		[]string{"kind"},
	)
)
