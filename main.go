package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"awsgateway/apigw"
	"awsgateway/awsclient"
	"awsgateway/handlers"
	"awsgateway/logger"
	"awsgateway/monitoring"
	"awsgateway/queue"
	"awsgateway/storage"
)

// shutdownTimeout - сколько ждать завершения активных запросов при остановке
const shutdownTimeout = 30 * time.Second

func main() {
	// Парсим аргументы командной строки
	var (
		configFile     = flag.String("config", "", "Configuration file path (YAML)")
		envFile        = flag.String("env-file", "", "Env file with AWS_* variables (default: .env if present)")
		listenAddr     = flag.String("listen", "", "Listen address (overrides config)")
		tlsCert        = flag.String("tls-cert", "", "TLS certificate file (overrides config)")
		tlsKey         = flag.String("tls-key", "", "TLS key file (overrides config)")
		readTimeout    = flag.Duration("read-timeout", 0, "Read timeout (overrides config)")
		writeTimeout   = flag.Duration("write-timeout", 0, "Write timeout (overrides config)")
		useMock        = flag.Bool("mock", false, "Use in-memory S3 and SQS instead of AWS (overrides config)")
		logLevel       = flag.String("log-level", "", "Log level (debug, info, warn, error) (overrides config)")
		region         = flag.String("region", "", "AWS region (overrides config and environment)")
		endpoint       = flag.String("endpoint", "", "AWS endpoint override, e.g. LocalStack (overrides config and environment)")
		metricsAddr    = flag.String("metrics-listen", "", "Metrics server listen address (overrides config)")
		disableMetrics = flag.Bool("disable-metrics", false, "Disable metrics server (overrides config)")
		printConfig    = flag.Bool("print-config", false, "Print effective configuration and exit")
		writeConfig    = flag.String("write-config", "", "Write effective configuration to file and exit")
	)
	flag.Parse()

	config, err := LoadConfig(*configFile, *envFile)
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}

	// Применяем переопределения из командной строки
	applyCommandLineOverrides(config, overrides{
		listenAddr:     *listenAddr,
		tlsCert:        *tlsCert,
		tlsKey:         *tlsKey,
		readTimeout:    *readTimeout,
		writeTimeout:   *writeTimeout,
		useMock:        *useMock,
		logLevel:       *logLevel,
		region:         *region,
		endpoint:       *endpoint,
		metricsAddr:    *metricsAddr,
		disableMetrics: *disableMetrics,
	})
	if err := config.Validate(); err != nil {
		logger.Fatal("Invalid configuration after overrides: %v", err)
	}

	if *printConfig {
		data, err := yaml.Marshal(config.Redacted())
		if err != nil {
			logger.Fatal("Failed to marshal configuration: %v", err)
		}
		fmt.Print(string(data))
		return
	}
	if *writeConfig != "" {
		if err := config.SaveConfig(*writeConfig); err != nil {
			logger.Fatal("%v", err)
		}
		logger.Info("Configuration written to %s", *writeConfig)
		return
	}

	logger.Info("AWS gateway starting...")
	logger.Info("Log level: %s", logger.GetGlobalLevel().String())

	registry := prometheus.NewRegistry()

	// Создаем и запускаем модуль мониторинга
	monitor, err := monitoring.New(&config.Monitoring, registry)
	if err != nil {
		logger.Fatal("Failed to create monitoring module: %v", err)
	}
	if err := monitor.Start(); err != nil {
		logger.Fatal("Failed to start monitoring module: %v", err)
	}

	ctx := context.Background()
	s3Handler, sqsHandler, err := buildHandlers(ctx, config, registry)
	if err != nil {
		logger.Fatal("Failed to initialize AWS services: %v", err)
	}

	gateway := apigw.New(config.Server.Config, apigw.NewMetrics(registry), s3Handler, sqsHandler)

	logger.Info("Configuration:")
	logger.Info("  Listen Address: %s", config.Server.ListenAddress)
	logger.Info("  Read Timeout: %v", config.Server.ReadTimeout)
	logger.Info("  Write Timeout: %v", config.Server.WriteTimeout)
	logger.Info("  AWS Region: %s", config.AWS.Region)
	if config.AWS.Endpoint != "" {
		logger.Info("  AWS Endpoint: %s", config.AWS.Endpoint)
	}
	if config.Server.TLSCertFile != "" {
		logger.Info("  TLS Enabled: Yes")
		logger.Info("  TLS Cert: %s", config.Server.TLSCertFile)
	} else {
		logger.Info("  TLS Enabled: No")
	}

	// Настраиваем graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- gateway.Start()
	}()

	logger.Info("AWS gateway started successfully")
	if monitor.IsEnabled() {
		logger.Info("Metrics available at: %s%s", config.Monitoring.ListenAddress, config.Monitoring.MetricsPath)
	}

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v, shutting down...", sig)
	case err := <-serveErr:
		if err != nil {
			logger.Error("API Gateway failed: %v", err)
		}
	}

	monitor.BeginShutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := gateway.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping API Gateway: %v", err)
	}

	if err := monitor.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping monitoring: %v", err)
	}

	logger.Info("AWS gateway stopped")
}

// buildHandlers создает клиенты AWS (или их in-memory замену), сервисы и HTTP обработчики
func buildHandlers(ctx context.Context, config *AppConfig, reg prometheus.Registerer) (*handlers.S3Handler, *handlers.SQSHandler, error) {
	var (
		s3Client  storage.S3API
		presigner storage.PresignAPI
		sqsClient queue.SQSAPI
	)

	if config.Server.UseMock {
		logger.Info("Using in-memory S3 and SQS (mock mode)")
		logger.Info("  Buckets: %v", config.Server.MockBuckets)
		logger.Info("  Queues: %v", config.Server.MockQueues)
		memS3 := storage.NewMemoryClient(config.Server.MockBuckets...)
		s3Client, presigner = memS3, memS3
		sqsClient = queue.NewMemoryClient(config.Server.MockQueues...)
	} else {
		clients, err := awsclient.NewClients(ctx, &config.AWS)
		if err != nil {
			return nil, nil, err
		}
		s3Client, presigner, sqsClient = clients.S3, clients.Presign, clients.SQS
	}

	s3Service := storage.NewService(s3Client, presigner, &config.S3, storage.NewMetrics(reg))
	sqsService := queue.NewService(sqsClient, queue.NewMetrics(reg))

	maxMemory := config.Server.MaxUploadMemoryMB << 20
	return handlers.NewS3Handler(s3Service, maxMemory), handlers.NewSQSHandler(sqsService), nil
}

// overrides - значения флагов командной строки; пустые значения не применяются
type overrides struct {
	listenAddr, tlsCert, tlsKey string
	readTimeout, writeTimeout   time.Duration
	useMock                     bool
	logLevel                    string
	region, endpoint            string
	metricsAddr                 string
	disableMetrics              bool
}

// applyCommandLineOverrides применяет переопределения из командной строки
func applyCommandLineOverrides(config *AppConfig, o overrides) {
	// Уровень логирования применяется первым, иначе строки Override ниже не видны на debug
	if o.logLevel != "" {
		config.Logging.Level = o.logLevel
	}
	logger.SetGlobalLevel(logger.ParseLogLevel(config.Logging.Level))
	if o.logLevel != "" {
		logger.Debug("Override: logging.level = %s", o.logLevel)
	}

	// Переопределения сервера
	if o.listenAddr != "" {
		config.Server.ListenAddress = o.listenAddr
		logger.Debug("Override: server.listen_address = %s", o.listenAddr)
	}

	if o.tlsCert != "" {
		config.Server.TLSCertFile = o.tlsCert
		logger.Debug("Override: server.tls_cert_file = %s", o.tlsCert)
	}

	if o.tlsKey != "" {
		config.Server.TLSKeyFile = o.tlsKey
		logger.Debug("Override: server.tls_key_file = %s", o.tlsKey)
	}

	if o.readTimeout > 0 {
		config.Server.ReadTimeout = o.readTimeout
		logger.Debug("Override: server.read_timeout = %v", o.readTimeout)
	}

	if o.writeTimeout > 0 {
		config.Server.WriteTimeout = o.writeTimeout
		logger.Debug("Override: server.write_timeout = %v", o.writeTimeout)
	}

	if o.useMock {
		config.Server.UseMock = true
		logger.Debug("Override: server.use_mock = true")
	}

	// Переопределения AWS
	if o.region != "" {
		config.AWS.Region = o.region
		logger.Debug("Override: aws.region = %s", o.region)
	}

	if o.endpoint != "" {
		config.AWS.Endpoint = o.endpoint
		logger.Debug("Override: aws.endpoint = %s", o.endpoint)
	}

	// Переопределения мониторинга
	if o.metricsAddr != "" {
		config.Monitoring.ListenAddress = o.metricsAddr
		logger.Debug("Override: monitoring.listen_address = %s", o.metricsAddr)
	}

	if o.disableMetrics {
		config.Monitoring.Enabled = false
		logger.Debug("Override: monitoring.enabled = false")
	}
}
