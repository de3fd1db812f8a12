package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthPathPrefix = "/health/"

// Server представляет HTTP сервер для экспорта метрик Prometheus и health check'ов
type Server struct {
	config       *Config
	gatherer     prometheus.Gatherer
	server       *http.Server
	listener     net.Listener
	shuttingDown atomic.Bool
	wg           sync.WaitGroup
}

// NewServer создает новый сервер метрик. gatherer - откуда отдаются метрики.
func NewServer(config *Config, gatherer prometheus.Gatherer) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &Server{
		config:   config,
		gatherer: gatherer,
	}
}

// Handler возвращает роутер сервера
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc(healthPathPrefix+"live", s.liveHealthHandler).Methods(http.MethodGet)
	r.HandleFunc(healthPathPrefix+"ready", s.readyHealthHandler).Methods(http.MethodGet)
	return r
}

// Start открывает порт и обслуживает запросы в отдельной горутине
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	s.listener = l
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("Metrics server listening on %s%s", l.Addr(), s.config.MetricsPath)
		if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed: %v", err)
		}
	}()

	return nil
}

// Addr возвращает фактический адрес сервера (nil до Start)
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// MarkShuttingDown переводит /health/ready в состояние 503
func (s *Server) MarkShuttingDown() {
	s.shuttingDown.Store(true)
}

// Stop останавливает HTTP сервер метрик
func (s *Server) Stop(ctx context.Context) error {
	s.MarkShuttingDown()
	if s.server == nil {
		return nil
	}

	log.Info("Stopping metrics server...")
	err := s.server.Shutdown(ctx)
	s.wg.Wait()
	return err
}

// liveHealthHandler обрабатывает запросы /health/live
func (s *Server) liveHealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

// readyHealthHandler обрабатывает запросы /health/ready
func (s *Server) readyHealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Во время graceful shutdown балансировщик должен перестать слать трафик
	if s.shuttingDown.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"status":"shutting down"}`)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}
