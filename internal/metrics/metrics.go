// Package metrics declares the Prometheus metrics of the session gate and the
// identity backend. All vectors are registered with the default registry on
// package load; the client shell and the server expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "swa_antarang"

// ── Client: session controller ───────────────────────────────────────────────

// SessionTransitions counts identity changes made by the session controller.
// Label:
//   - event: "bootstrap", "login", "signup", "logout", "clean", "signed_out", "refreshed"
var SessionTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "transitions_total",
		Help:      "Identity transitions applied by the session controller.",
	},
	[]string{"event"},
)

// StaleCommits counts results discarded because a newer operation had started.
var StaleCommits = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "stale_commits_total",
		Help:      "Identity results dropped because their generation was no longer current.",
	},
)

// BootstrapDuration measures the startup restore.
// Label:
//   - outcome: "none", "restored", "cleaned", "timeout"
var BootstrapDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "bootstrap_duration_seconds",
		Help:      "Time from controller start until loading cleared.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// GuardDecisions counts route guard verdicts.
// Labels:
//   - guard: "protected" or "role"
//   - decision: "loading", "redirect", "render"
var GuardDecisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "guard",
		Name:      "decisions_total",
		Help:      "Route guard decisions.",
	},
	[]string{"guard", "decision"},
)

// ── Client: backend ──────────────────────────────────────────────────────────

// TokenRefreshes counts access-token refresh attempts.
// Label:
//   - result: "ok", "rejected", "error"
var TokenRefreshes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backend",
		Name:      "token_refreshes_total",
		Help:      "Access token refresh attempts by result.",
	},
	[]string{"result"},
)

// ── Server ───────────────────────────────────────────────────────────────────

// AuthRequests counts identity backend auth calls.
// Labels:
//   - op: "password", "refresh_token", "signup", "logout", "user"
//   - code: HTTP status returned
var AuthRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "auth_requests_total",
		Help:      "Auth API requests handled by the identity backend.",
	},
	[]string{"op", "code"},
)

// RequestDuration measures HTTP handling time on the identity backend.
// Labels:
//   - route: echo route path
//   - method: HTTP method
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "request_duration_seconds",
		Help:      "Identity backend HTTP request duration.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"route", "method"},
)
