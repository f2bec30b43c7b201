// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "digitguess"

// GuessesTotal counts accepted guesses by mode (classic, progressive, daily, room)
// and result (hit = exact match, miss otherwise).
var GuessesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "game",
	Name:      "guesses_total",
	Help:      "Accepted guesses by mode and result.",
}, []string{"mode", "result"})

// GamesFinished counts finished games by mode and outcome (won, lost).
var GamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "game",
	Name:      "finished_total",
	Help:      "Finished games by mode and outcome.",
}, []string{"mode", "outcome"})

// FinalScore observes the final score of finished games.
var FinalScore = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "game",
	Name:      "final_score",
	Help:      "Final score of finished games.",
	Buckets:   []float64{0, 250, 500, 1000, 2000, 4000, 8000, 16000},
}, []string{"mode"})

// ActiveRooms tracks live multiplayer rooms.
var ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "rooms",
	Name:      "active",
	Help:      "Current number of multiplayer rooms.",
})

// RateLimitAllowed and RateLimitBlocked count rate limiter decisions by scope.
var RateLimitAllowed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ratelimit",
	Name:      "allowed_total",
	Help:      "Requests let through by the rate limiter.",
}, []string{"scope"})

var RateLimitBlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ratelimit",
	Name:      "blocked_total",
	Help:      "Requests rejected by the rate limiter.",
}, []string{"scope"})

// ChatRequests counts assistant requests by status (ok, upstream_error, not_configured, bad_request).
var ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "chat",
	Name:      "requests_total",
	Help:      "Assistant requests by status.",
}, []string{"status"})

// ObserveGuess records an accepted guess.
func ObserveGuess(mode string, exact bool) {
	result := "miss"
	if exact {
		result = "hit"
	}
	GuessesTotal.WithLabelValues(mode, result).Inc()
}

// ObserveFinished records a finished game and its final score.
func ObserveFinished(mode string, won bool, score int) {
	outcome := "lost"
	if won {
		outcome = "won"
	}
	GamesFinished.WithLabelValues(mode, outcome).Inc()
	FinalScore.WithLabelValues(mode).Observe(float64(score))
}
