package service

import "github.com/prometheus/client_golang/prometheus"

var (
	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "registrations_total", Help: "Registration attempts by role, result and last state reached"},
		[]string{"role", "result", "state"},
	)
	logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "logins_total", Help: "Login attempts by result"},
		[]string{"result"},
	)
	promoteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "document_promote_failures_total", Help: "Staged documents that could not be moved after commit"},
	)
)

func init() { prometheus.MustRegister(registrations, logins, promoteFailures) }
