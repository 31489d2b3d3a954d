package game

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ticksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "sim",
		Name:      "ticks_total",
		Help:      "Выполненных тиков симуляции.",
	})
	tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "taskverse",
		Subsystem: "sim",
		Name:      "tick_duration_seconds",
		Help:      "Время выполнения одного тика.",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.016},
	})
	animationsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "sim",
		Name:      "animations_finished_total",
		Help:      "Завершённых анимаций по виду и причине.",
	}, []string{"kind", "reason"})
	respawnsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "sim",
		Name:      "respawns_total",
		Help:      "Перемещений корабля после смерти.",
	}, []string{"reason"})
	projectileHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "sim",
		Name:      "projectile_hits_total",
		Help:      "Попаданий снарядов по оружию.",
	}, []string{"weapon"})
	eventsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "sim",
		Name:      "remote_events_total",
		Help:      "Входящих игровых событий по типу.",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(
		ticksTotal,
		tickDuration,
		animationsFinished,
		respawnsTotal,
		projectileHits,
		eventsApplied,
	)
}
