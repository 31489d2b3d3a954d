package eventbus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	busPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "eventbus",
		Name:      "messages_published_total",
		Help:      "Общее число опубликованных сообщений.",
	}, []string{"bus"})
	busConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "eventbus",
		Name:      "messages_consumed_total",
		Help:      "Общее число доставленных сообщений подписчикам.",
	}, []string{"bus"})
	busDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskverse",
		Subsystem: "eventbus",
		Name:      "messages_dropped_total",
		Help:      "Сообщений, отброшенных из-за ошибок или ограничения back-pressure.",
	}, []string{"bus"})
	busInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "taskverse",
		Subsystem: "eventbus",
		Name:      "messages_inflight",
		Help:      "Количество сообщений, находящихся в очереди (не доставленных).",
	}, []string{"bus"})
)

func init() {
	prometheus.MustRegister(busPublished, busConsumed, busDropped, busInflight)
}

// MetricsExporter периодически переносит Stats шины в Prometheus.
// Эндпоинт /metrics обслуживает debug API.
type MetricsExporter struct {
	bus      EventBus
	name     string
	interval time.Duration
	quit     chan struct{}
	done     chan struct{}
	prev     Stats
}

// NewMetricsExporter создаёт экспортер для шины с меткой name.
func NewMetricsExporter(bus EventBus, name string) *MetricsExporter {
	return &MetricsExporter{
		bus:      bus,
		name:     name,
		interval: time.Second,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает цикл обновления. Метод неблокирующий.
func (m *MetricsExporter) Start() {
	go m.loop()
}

// Stop останавливает обновление метрик и делает последний снимок.
func (m *MetricsExporter) Stop() {
	close(m.quit)
	<-m.done
}

// Collect переносит приращения счётчиков с момента прошлого вызова.
func (m *MetricsExporter) Collect() {
	stats := m.bus.Metrics()

	// Counter не уменьшается, поэтому прибавляем только дельту
	if stats.Published > m.prev.Published {
		busPublished.WithLabelValues(m.name).Add(float64(stats.Published - m.prev.Published))
	}
	if stats.Consumed > m.prev.Consumed {
		busConsumed.WithLabelValues(m.name).Add(float64(stats.Consumed - m.prev.Consumed))
	}
	if stats.Dropped > m.prev.Dropped {
		busDropped.WithLabelValues(m.name).Add(float64(stats.Dropped - m.prev.Dropped))
	}
	busInflight.WithLabelValues(m.name).Set(float64(stats.InFlight))

	m.prev = stats
}

func (m *MetricsExporter) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	defer close(m.done)

	for {
		select {
		case <-ticker.C:
			m.Collect()
		case <-m.quit:
			m.Collect()
			return
		}
	}
}
