package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"awsgateway/apigw"
	"awsgateway/awsclient"
	"awsgateway/logger"
	"awsgateway/monitoring"
	"awsgateway/storage"
)

// defaultEnvFile читается, если путь к env-файлу не задан явно
const defaultEnvFile = ".env"

// AppConfig содержит полную конфигурацию приложения
type AppConfig struct {
	// Конфигурация HTTP сервера шлюза
	Server ServerConfig `yaml:"server"`

	// Конфигурация логирования
	Logging LoggingConfig `yaml:"logging"`

	// Подключение к AWS
	AWS awsclient.Config `yaml:"aws"`

	// Настройки загрузки в S3
	S3 storage.Config `yaml:"s3"`

	// Конфигурация мониторинга
	Monitoring monitoring.Config `yaml:"monitoring"`
}

// ServerConfig содержит конфигурацию HTTP сервера
type ServerConfig struct {
	apigw.Config `yaml:",inline"`

	// UseMock - работать с in-memory S3 и SQS вместо AWS
	UseMock bool `yaml:"use_mock"`

	// Бакеты и очереди, создаваемые в mock-режиме
	MockBuckets []string `yaml:"mock_buckets"`
	MockQueues  []string `yaml:"mock_queues"`
}

// LoggingConfig содержит конфигурацию логирования
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultAppConfig возвращает конфигурацию по умолчанию
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Config: apigw.DefaultConfig(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		AWS:        *awsclient.DefaultConfig(),
		S3:         *storage.DefaultConfig(),
		Monitoring: *monitoring.DefaultConfig(),
	}
}

// LoadConfig собирает конфигурацию: значения по умолчанию, YAML файл (если задан),
// env-файл и переменные окружения AWS_*. Пустой filename означает работу без файла.
func LoadConfig(filename, envFile string) (*AppConfig, error) {
	config := DefaultAppConfig()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
		}
	}

	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}
	config.AWS.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadEnvFile загружает переменные из env-файла, не перетирая уже заданные.
// Отсутствие файла по умолчанию не считается ошибкой.
func loadEnvFile(envFile string) error {
	if envFile == "" {
		err := godotenv.Load(defaultEnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", defaultEnvFile, err)
		}
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}
	return nil
}

// Validate проверяет корректность конфигурации
func (c *AppConfig) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if !logger.IsValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	if err := c.AWS.Validate(); err != nil {
		return fmt.Errorf("aws config: %w", err)
	}

	if err := c.S3.Validate(); err != nil {
		return fmt.Errorf("s3 config: %w", err)
	}

	if err := c.Monitoring.Validate(); err != nil {
		return fmt.Errorf("monitoring config: %w", err)
	}

	return nil
}

// Redacted возвращает копию конфигурации со скрытыми секретами
func (c *AppConfig) Redacted() *AppConfig {
	out := *c
	if out.AWS.SecretKey != "" {
		out.AWS.SecretKey = "******"
	}
	if out.AWS.SessionToken != "" {
		out.AWS.SessionToken = "******"
	}
	return &out
}

// SaveConfig сохраняет конфигурацию в файл (для генерации примера)
func (c *AppConfig) SaveConfig(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}

	return nil
}
