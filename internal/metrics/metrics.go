// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package metrics defines the Prometheus counters of the auth core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gabaylakad"

// Metrics groups the counters. A nil *Metrics records nothing.
type Metrics struct {
	logins          *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	gate            *prometheus.CounterVec
	blacklistWrites *prometheus.CounterVec
	emails          *prometheus.CounterVec
}

// New registers the counters with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Refresh token rotations by result.",
		}, []string{"result"}),
		gate: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_gate_decisions_total",
			Help:      "Decisions of the authentication gate.",
		}, []string{"decision"}),
		blacklistWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blacklist_writes_total",
			Help:      "Access token blacklist writes on logout by result.",
		}, []string{"result"}),
		emails: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Account emails by kind and result.",
		}, []string{"kind", "result"}),
	}
}

// Login counts a login attempt.
func (m *Metrics) Login(result string) {
	if m != nil {
		m.logins.WithLabelValues(result).Inc()
	}
}

// Refresh counts a refresh token rotation.
func (m *Metrics) Refresh(result string) {
	if m != nil {
		m.refreshes.WithLabelValues(result).Inc()
	}
}

// Gate counts a gate decision.
func (m *Metrics) Gate(decision string) {
	if m != nil {
		m.gate.WithLabelValues(decision).Inc()
	}
}

// BlacklistWrite counts a blacklist write on logout.
func (m *Metrics) BlacklistWrite(result string) {
	if m != nil {
		m.blacklistWrites.WithLabelValues(result).Inc()
	}
}

// Email counts an account email.
func (m *Metrics) Email(kind, result string) {
	if m != nil {
		m.emails.WithLabelValues(kind, result).Inc()
	}
}
