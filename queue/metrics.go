package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsTotal    *prometheus.CounterVec   // Количество вызовов SQS по операциям и результату
	RequestLatency   *prometheus.HistogramVec // Латентность вызовов SQS (включая long polling)
	MessagesReceived prometheus.Counter       // Количество полученных сообщений
}

// NewMetrics создает метрики и регистрирует их в reg.
// Если reg == nil, метрики создаются без регистрации.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "awsgateway_sqs_requests_total",
				Help: "Total number of SQS SDK calls",
			},
			[]string{"operation", "result"},
		),
		RequestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "awsgateway_sqs_latency_seconds",
				Help:    "Latency of SQS SDK calls in seconds",
				Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10, 20},
			},
			[]string{"operation"},
		),
		MessagesReceived: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "awsgateway_sqs_messages_received_total",
				Help: "Total number of messages received from SQS",
			},
		),
	}
}
