package apigw

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"awsgateway/logger"
)

var log = logger.Named("apigw")

// RequestIDHeader - заголовок с идентификатором запроса
const RequestIDHeader = "X-Request-Id"

// unmatchedRoute - метка маршрута для запросов, не попавших ни в один маршрут
const unmatchedRoute = "unmatched"

// Registrar регистрирует свои маршруты в роутере шлюза
type Registrar interface {
	RegisterRoutes(r *mux.Router)
}

// Gateway представляет модуль API Gateway
type Gateway struct {
	config         Config
	router         *mux.Router
	responseWriter *ResponseWriter
	metrics        *Metrics

	mu     sync.Mutex
	server *http.Server
}

type requestIDKey struct{}

// New создает новый экземпляр API Gateway и регистрирует маршруты обработчиков
func New(config Config, metrics *Metrics, registrars ...Registrar) *Gateway {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	gw := &Gateway{
		config:         config,
		router:         mux.NewRouter(),
		responseWriter: NewResponseWriter(),
		metrics:        metrics,
	}

	gw.router.NotFoundHandler = http.HandlerFunc(gw.notFound)
	gw.router.MethodNotAllowedHandler = http.HandlerFunc(gw.methodNotAllowed)

	for _, reg := range registrars {
		reg.RegisterRoutes(gw.router)
	}

	return gw
}

// Router возвращает роутер шлюза
func (gw *Gateway) Router() *mux.Router {
	return gw.router
}

// ServeHTTP реализует интерфейс http.Handler
func (gw *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := r.Header.Get(RequestIDHeader)
	if !validRequestID(requestID) {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)
	r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID))

	route := gw.routeTemplate(r)

	log.Info("Incoming request: %s %s (request_id=%s)", r.Method, r.URL.Path, requestID)
	log.Debug("Request headers: %+v", r.Header)

	gw.metrics.InFlight.Inc()
	defer gw.metrics.InFlight.Dec()

	rec := &statusRecorder{ResponseWriter: w}
	gw.router.ServeHTTP(rec, r)

	status := rec.Status()
	latency := time.Since(start)
	log.Info("Response sent: %d, %.3f ms (request_id=%s)", status, float64(latency.Microseconds())/1000.0, requestID)

	gw.metrics.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	gw.metrics.RequestLatency.WithLabelValues(r.Method, route).Observe(latency.Seconds())
}

// maxRequestIDLength ограничивает входящий X-Request-Id
const maxRequestIDLength = 128

// validRequestID принимает непустой идентификатор из [A-Za-z0-9._:-] не длиннее maxRequestIDLength.
// Иначе шлюз генерирует свой: значение попадает в заголовок ответа и в логи.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}

// routeTemplate возвращает шаблон пути маршрута для метрик
func (gw *Gateway) routeTemplate(r *http.Request) string {
	var match mux.RouteMatch
	if !gw.router.Match(r, &match) || match.Route == nil {
		return unmatchedRoute
	}
	tmpl, err := match.Route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tmpl
}

func (gw *Gateway) notFound(w http.ResponseWriter, r *http.Request) {
	gw.responseWriter.WriteError(w, NewHTTPError(http.StatusNotFound,
		fmt.Sprintf("no handler for %s", r.URL.Path), nil))
}

func (gw *Gateway) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	gw.responseWriter.WriteError(w, NewHTTPError(http.StatusMethodNotAllowed,
		fmt.Sprintf("method %s is not allowed for %s", r.Method, r.URL.Path), nil))
}

// Start запускает сервер на адресе из конфигурации. Блокируется до остановки.
func (gw *Gateway) Start() error {
	log.Info("Starting API Gateway on %s", gw.config.ListenAddress)

	l, err := net.Listen("tcp", gw.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", gw.config.ListenAddress, err)
	}
	return gw.Serve(l)
}

// Serve обслуживает запросы на уже открытом listener.
// После Stop возвращает nil.
func (gw *Gateway) Serve(l net.Listener) error {
	server := &http.Server{
		Handler:      gw,
		ReadTimeout:  gw.config.ReadTimeout,
		WriteTimeout: gw.config.WriteTimeout,
	}

	gw.mu.Lock()
	gw.server = server
	gw.mu.Unlock()

	var err error
	// Проверяем, нужно ли использовать TLS
	if gw.config.TLSCertFile != "" && gw.config.TLSKeyFile != "" {
		log.Info("Starting HTTPS server with TLS")
		err = server.ServeTLS(l, gw.config.TLSCertFile, gw.config.TLSKeyFile)
	} else {
		log.Info("Starting HTTP server")
		err = server.Serve(l)
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop останавливает сервер, дожидаясь завершения активных запросов
func (gw *Gateway) Stop(ctx context.Context) error {
	gw.mu.Lock()
	server := gw.server
	gw.mu.Unlock()

	if server == nil {
		return nil
	}

	log.Info("Stopping API Gateway...")
	return server.Shutdown(ctx)
}

// RequestIDFromContext возвращает идентификатор запроса, назначенный шлюзом
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// statusRecorder запоминает код ответа для логов и метрик
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(p)
}

// Flush нужен для потоковой отдачи объектов
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Status возвращает записанный код ответа (200, если обработчик ничего не записал)
func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
