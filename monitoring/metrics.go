package monitoring

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SystemMetrics - метрики процесса, обновляемые по таймеру
type SystemMetrics struct {
	Goroutines    prometheus.Gauge // Количество горутин
	HeapAlloc     prometheus.Gauge // Занятая память в heap
	UptimeSeconds prometheus.Gauge // Время работы процесса

	startedAt time.Time
}

// NewSystemMetrics создает метрики и регистрирует их в reg
func NewSystemMetrics(reg prometheus.Registerer) *SystemMetrics {
	factory := promauto.With(reg)
	return &SystemMetrics{
		Goroutines: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "awsgateway_goroutines",
				Help: "Number of goroutines",
			},
		),
		HeapAlloc: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "awsgateway_memory_heap_alloc_bytes",
				Help: "Bytes of allocated heap objects",
			},
		),
		UptimeSeconds: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "awsgateway_uptime_seconds",
				Help: "Seconds since the gateway started",
			},
		),
		startedAt: time.Now(),
	}
}

// Collect снимает текущие значения
func (m *SystemMetrics) Collect() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m.Goroutines.Set(float64(runtime.NumGoroutine()))
	m.HeapAlloc.Set(float64(ms.HeapAlloc))
	m.UptimeSeconds.Set(time.Since(m.startedAt).Seconds())
}

// Run обновляет метрики с заданным интервалом до закрытия stop
func (m *SystemMetrics) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.Collect()
	for {
		select {
		case <-ticker.C:
			m.Collect()
		case <-stop:
			return
		}
	}
}
