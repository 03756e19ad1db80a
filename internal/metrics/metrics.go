package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csrbot_registrations_total",
			Help: "Total number of registration attempts",
		},
		[]string{"result"},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csrbot_logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	TokenValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csrbot_token_validations_total",
			Help: "Total number of token validations",
		},
		[]string{"result"},
	)

	RevocationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "csrbot_token_revocations_total",
			Help: "Total number of token revocations",
		},
	)

	SmartQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csrbot_smart_queries_total",
			Help: "Total number of smart queries proxied to the ML service",
		},
		[]string{"status"},
	)
)
