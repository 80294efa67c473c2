// Package metrics holds the Prometheus collectors of the voting core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pikonote",
		Name:      "votes_cast_total",
		Help:      "Ballots accepted, by whether they replaced an earlier vote.",
	}, []string{"kind"})

	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pikonote",
		Name:      "vote_sessions_created_total",
		Help:      "Vote sessions created.",
	})

	SessionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pikonote",
		Name:      "vote_sessions_finished_total",
		Help:      "Vote sessions finished explicitly, by outcome.",
	}, []string{"outcome"})

	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pikonote",
		Name:      "vote_sessions_swept_total",
		Help:      "Expired vote sessions flipped to finished by the sweeper.",
	})

	LiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pikonote",
		Name:      "live_subscribers",
		Help:      "Open websocket subscriptions on this instance.",
	})
)

const (
	KindNew    = "new"
	KindUpdate = "update"

	OutcomeChosen  = "chosen"
	OutcomeCleared = "cleared"
)
