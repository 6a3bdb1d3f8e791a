// Package metrics holds the Prometheus instruments used across the server.
// All collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SignInsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_sign_ins_total",
			Help: "Cumulative number of successful magic-link sign-ins.",
		})

	SignOutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_sign_outs_total",
			Help: "Cumulative number of sign-outs.",
		})

	MagicLinksIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_magic_links_issued_total",
			Help: "Cumulative number of magic links issued.",
		})

	MagicLinkFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_magic_link_failures_total",
			Help: "Cumulative number of rejected magic-link tokens.",
		})

	UserLookupErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_user_lookup_errors_total",
			Help: "Cumulative number of session-to-user lookups downgraded to anonymous.",
		})

	PostReadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "post_reads_total",
			Help: "Cumulative number of recorded post reads.",
		})
)

func init() {
	prometheus.MustRegister(
		SignInsTotal,
		SignOutsTotal,
		MagicLinksIssuedTotal,
		MagicLinkFailuresTotal,
		UserLookupErrorsTotal,
		PostReadsTotal,
	)
}
