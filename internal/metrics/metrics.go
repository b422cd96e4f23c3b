package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the service's Prometheus instruments.
type Collector struct {
	ActiveRooms       prometheus.Gauge
	ActiveConnections prometheus.Gauge
	GamesStarted      prometheus.Counter
	GamesFinished     prometheus.Counter
	Answers           *prometheus.CounterVec
	QuestionSources   *prometheus.CounterVec
}

// New registers the instruments on reg. Pass prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		ActiveRooms: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "trivia",
			Name:      "active_rooms",
			Help:      "Rooms currently live in the registry.",
		}),
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "trivia",
			Name:      "active_connections",
			Help:      "Open WebSocket connections.",
		}),
		GamesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "games_started_total",
			Help:      "Games that left the lobby.",
		}),
		GamesFinished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "games_finished_total",
			Help:      "Games that played every round.",
		}),
		Answers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "answers_total",
			Help:      "Submitted answers by outcome (recorded or dropped).",
		}, []string{"outcome"}),
		QuestionSources: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "question_source_results_total",
			Help:      "Question source attempts by source and outcome.",
		}, []string{"source", "outcome"}),
	}
}

func (c *Collector) RoomCount(n int)       { c.ActiveRooms.Set(float64(n)) }
func (c *Collector) ConnectionCount(n int) { c.ActiveConnections.Set(float64(n)) }
func (c *Collector) GameStarted()          { c.GamesStarted.Inc() }
func (c *Collector) GameFinished()         { c.GamesFinished.Inc() }

func (c *Collector) AnswerRecorded() { c.Answers.WithLabelValues("recorded").Inc() }
func (c *Collector) AnswerDropped()  { c.Answers.WithLabelValues("dropped").Inc() }

func (c *Collector) QuestionSourceResult(source, outcome string) {
	c.QuestionSources.WithLabelValues(source, outcome).Inc()
}
