package apigw

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Общие метрики запросов
	RequestsTotal  *prometheus.CounterVec   // Общее количество обработанных HTTP запросов
	RequestLatency *prometheus.HistogramVec // Латентность HTTP запросов
	InFlight       prometheus.Gauge         // Запросы в обработке
}

// NewMetrics создает метрики шлюза и регистрирует их в reg.
// Если reg == nil, метрики создаются без регистрации.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "awsgateway_apigw_requests_total",
				Help: "Total number of processed HTTP requests",
			},
			[]string{"method", "route", "code"},
		),
		RequestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "awsgateway_apigw_request_latency_seconds",
				Help:    "Latency of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "awsgateway_apigw_requests_in_flight",
				Help: "Number of HTTP requests currently being served",
			},
		),
	}
}
