package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quizhub"

// Metrics holds the game service's Prometheus collectors.
type Metrics struct {
	GamesStarted       *prometheus.CounterVec
	GamesFinished      *prometheus.CounterVec
	Answers            *prometheus.CounterVec
	AnswerTime         prometheus.Histogram
	LifelinesUsed      *prometheus.CounterVec
	ChallengeResults   *prometheus.CounterVec
	Purchases          *prometheus.CounterVec
	AchievementUnlocks prometheus.Counter
	PersistenceErrors  *prometheus.CounterVec
	ActiveConnections  prometheus.Gauge
}

// New registers collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		GamesStarted: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "games_started_total",
				Help:      "Games started, by kind",
			},
			[]string{"kind"},
		),
		GamesFinished: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "games_finished_total",
				Help:      "Games reaching a terminal status, by kind and status",
			},
			[]string{"kind", "status"},
		),
		Answers: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answers_total",
				Help:      "Accepted answers, by correctness",
			},
			[]string{"correct"},
		),
		AnswerTime: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "answer_time_seconds",
				Help:      "Time taken per accepted answer",
				Buckets:   []float64{1, 2, 3, 5, 8, 10, 15, 30},
			},
		),
		LifelinesUsed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lifelines_used_total",
				Help:      "Lifelines applied, by kind",
			},
			[]string{"kind"},
		),
		ChallengeResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "challenge_results_total",
				Help:      "Resolved daily challenges, by type and status",
			},
			[]string{"type", "status"},
		),
		Purchases: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "shop_purchases_total",
				Help:      "Shop purchases, by item",
			},
			[]string{"item"},
		),
		AchievementUnlocks: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "achievement_unlocks_total",
				Help:      "Achievement unlock notifications emitted",
			},
		),
		PersistenceErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persistence_errors_total",
				Help:      "Failed saves, by entity",
			},
			[]string{"entity"},
		),
		ActiveConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Open websocket connections",
			},
		),
	}
}
