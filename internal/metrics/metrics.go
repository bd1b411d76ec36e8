package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DebatesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debate_started_total",
		Help: "Debates moved from setup to debate",
	})

	DebatesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debate_completed_total",
		Help: "Debates that ran past their last active speaker",
	})

	DebatesCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debate_cancelled_total",
		Help: "Rooms cancelled by their creator",
	})

	SpeakerAdvances = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debate_speaker_advances_total",
		Help: "Speaker transitions by the role that took the floor",
	}, []string{"role"})

	LobbyCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lobby_commands_total",
		Help: "Commands handled by room lobbies",
	}, []string{"type", "result"})

	Watchers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lobby_watchers",
		Help: "Websocket watchers currently attached to lobbies",
	})
)

// Result labels a command outcome without leaking error text into label values.
func Result(err error) string {
	if err != nil {
		return "rejected"
	}
	return "ok"
}
