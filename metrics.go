package bombrps

import "github.com/prometheus/client_golang/prometheus"

var (
	roundsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bombrps_rounds_resolved_total",
			Help: "Rounds resolved, by round winner",
		},
		[]string{"winner"},
	)
	roundsForfeited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bombrps_rounds_forfeited_total",
			Help: "Rounds forfeited on invalid input, by reason",
		},
		[]string{"reason"},
	)
	bombsDetonated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bombrps_bombs_detonated_total",
			Help: "Bombs played, by side",
		},
		[]string{"side"},
	)
	gamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bombrps_games_finished_total",
			Help: "Games that reached the round limit, by overall winner",
		},
		[]string{"champion"},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bombrps_active_sessions",
			Help: "Sessions currently held by the broker",
		},
	)
)

func init() {
	prometheus.MustRegister(roundsResolved)
	prometheus.MustRegister(roundsForfeited)
	prometheus.MustRegister(bombsDetonated)
	prometheus.MustRegister(gamesFinished)
	prometheus.MustRegister(activeSessions)
}

func recordRound(o RoundOutcome) {
	roundsResolved.WithLabelValues(string(o.Winner)).Inc()
	if o.UserMove == MoveBomb {
		bombsDetonated.WithLabelValues(SideUser.String()).Inc()
	}
	if o.BotMove == MoveBomb {
		bombsDetonated.WithLabelValues(SideBot.String()).Inc()
	}
}

func recordForfeit(reason error) {
	roundsForfeited.WithLabelValues(ReasonCode(reason)).Inc()
}
