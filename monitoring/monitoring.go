package monitoring

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"awsgateway/logger"
)

var log = logger.Named("monitoring")

// Monitor представляет основной интерфейс модуля мониторинга
type Monitor struct {
	config        *Config
	server        *Server
	systemMetrics *SystemMetrics
	stop          chan struct{}
	stopOnce      sync.Once
}

// New создает новый экземпляр Monitor. Метрики отдаются из registry;
// системные метрики регистрируются в нем же.
func New(config *Config, registry *prometheus.Registry) (*Monitor, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitoring config: %w", err)
	}

	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Monitor{
		config: config,
		server: NewServer(config, registry),
		stop:   make(chan struct{}),
	}
	if config.Enabled && config.EnableSystemMetrics {
		m.systemMetrics = NewSystemMetrics(registry)
	}

	log.Info("Monitoring module initialized")
	log.Debug("Monitoring config: enabled=%v, listen=%s, path=%s",
		config.Enabled, config.ListenAddress, config.MetricsPath)

	return m, nil
}

// Start запускает модуль мониторинга
func (m *Monitor) Start() error {
	if !m.config.Enabled {
		log.Info("Monitoring is disabled")
		return nil
	}

	if err := m.server.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	if m.systemMetrics != nil {
		go m.systemMetrics.Run(m.config.SystemMetricsInterval, m.stop)
	}

	log.Info("Monitoring module started successfully")
	return nil
}

// BeginShutdown сообщает через /health/ready, что сервис перестает принимать трафик
func (m *Monitor) BeginShutdown() {
	m.server.MarkShuttingDown()
}

// Stop останавливает модуль мониторинга
func (m *Monitor) Stop(ctx context.Context) error {
	if !m.config.Enabled {
		return nil
	}

	log.Info("Stopping monitoring module...")
	m.stopOnce.Do(func() { close(m.stop) })

	if err := m.server.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop metrics server: %w", err)
	}

	log.Info("Monitoring module stopped")
	return nil
}

// Addr возвращает адрес сервера метрик (nil, если он не запущен)
func (m *Monitor) Addr() net.Addr {
	return m.server.Addr()
}

// IsEnabled возвращает true, если мониторинг включен
func (m *Monitor) IsEnabled() bool {
	return m.config.Enabled
}
