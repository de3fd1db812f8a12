package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsTotal      *prometheus.CounterVec   // Количество вызовов S3 по операциям и результату
	RequestLatency     *prometheus.HistogramVec // Латентность вызовов S3
	BytesUploaded      prometheus.Counter       // Количество загруженных байт
	BytesDownloaded    prometheus.Counter       // Количество отданных клиентам байт
	PresignedURLsTotal prometheus.Counter       // Количество выданных presigned URL
}

// NewMetrics создает метрики и регистрирует их в reg.
// Если reg == nil, метрики создаются без регистрации.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "awsgateway_s3_requests_total",
				Help: "Total number of S3 SDK calls",
			},
			[]string{"operation", "result"},
		),
		RequestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "awsgateway_s3_latency_seconds",
				Help:    "Latency of S3 SDK calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		BytesUploaded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "awsgateway_s3_bytes_uploaded_total",
				Help: "Total number of bytes uploaded to S3",
			},
		),
		BytesDownloaded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "awsgateway_s3_bytes_downloaded_total",
				Help: "Total number of bytes streamed from S3 to clients",
			},
		),
		PresignedURLsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "awsgateway_s3_presigned_urls_total",
				Help: "Total number of generated pre-signed URLs",
			},
		),
	}
}
