// Package metrics exposes the Prometheus collectors of the bracket engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "efootball_cup"

var (
	BracketsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "brackets_generated_total",
		Help:      "Brackets generated.",
	})

	MatchesDecided = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matches_decided_total",
		Help:      "Matches decided, by how the outcome was reached.",
	}, []string{"outcome"})

	ResultRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "result_rejections_total",
		Help:      "Rejected result submissions, by reason.",
	}, []string{"reason"})

	AdvancementNoops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bracket_advancement_noops_total",
		Help:      "Advancements that changed nothing, by reason.",
	}, []string{"reason"})

	NotificationsEmailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_emailed_total",
		Help:      "Notification emails attempted, by result.",
	}, []string{"result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern, method and status.",
	}, []string{"route", "method", "status"})
)

// Outcome label values.
const (
	OutcomeReported = "reported"
	OutcomeBye      = "bye"
	OutcomeOverride = "override"
)
