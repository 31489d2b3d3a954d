package network

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Метрики сетевой подсистемы. Регистрируются один раз в глобальном регистре Prometheus.
var (
	snapshotsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "interp",
		Name:      "snapshots_ingested_total",
		Help:      "Снимков позиций, добавленных в буферы удалённых игроков.",
	})
	snapshotsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "interp",
		Name:      "snapshots_evicted_total",
		Help:      "Снимков, вытесненных из заполненного буфера.",
	})
	snapshotsStale = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "interp",
		Name:      "snapshots_stale_total",
		Help:      "Обновлений, пришедших позже более свежего и отброшенных.",
	})
	predictionsCapped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "interp",
		Name:      "predictions_capped_total",
		Help:      "Тиков, в которых экстраполяция упёрлась в ограничение.",
	})
	trackedPlayers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "taskverse",
		Subsystem: "interp",
		Name:      "tracked_players",
		Help:      "Количество отслеживаемых удалённых игроков.",
	})
	framesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "net",
		Name:      "frames_sent_total",
		Help:      "Отправленных кадров по типу.",
	}, []string{"type"})
	framesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "net",
		Name:      "frames_received_total",
		Help:      "Полученных кадров по типу.",
	}, []string{"type"})
	decodeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "net",
		Name:      "decode_errors_total",
		Help:      "Кадров, которые не удалось разобрать.",
	})
	relayClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "taskverse",
		Subsystem: "relay",
		Name:      "clients",
		Help:      "Подключённых к relay клиентов.",
	})
)

func init() {
	prometheus.MustRegister(
		snapshotsIngested,
		snapshotsEvicted,
		snapshotsStale,
		predictionsCapped,
		trackedPlayers,
		framesSent,
		framesReceived,
		decodeErrors,
		relayClients,
	)
}
