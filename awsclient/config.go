package awsclient

import (
	"fmt"
	"os"
)

// Config содержит параметры подключения к AWS
type Config struct {
	// Region - регион AWS (например, eu-central-1)
	Region string `yaml:"region"`

	// AccessKeyID и SecretKey - статические ключи доступа.
	// Если не заданы, используется стандартная цепочка провайдеров SDK.
	AccessKeyID string `yaml:"access_key_id"`
	SecretKey   string `yaml:"secret_key"`

	// SessionToken - токен временных учетных данных (опционально)
	SessionToken string `yaml:"session_token"`

	// Endpoint - переопределение адреса сервисов (LocalStack, MinIO)
	Endpoint string `yaml:"endpoint"`

	// UsePathStyle включает path-style адресацию бакетов S3
	UsePathStyle bool `yaml:"use_path_style"`
}

// Переменные окружения, переопределяющие конфигурацию из файла
const (
	EnvRegion       = "AWS_REGION"
	EnvAccessKeyID  = "AWS_ACCESS_KEY_ID"
	EnvSecretKey    = "AWS_SECRET_ACCESS_KEY"
	EnvSessionToken = "AWS_SESSION_TOKEN"
	EnvEndpoint     = "AWS_ENDPOINT_URL"
)

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Region: "us-east-1",
	}
}

// ApplyEnv переопределяет поля значениями из окружения, если они заданы
func (c *Config) ApplyEnv() {
	c.ApplyLookup(os.LookupEnv)
}

// ApplyLookup то же, что ApplyEnv, но с произвольным источником значений
func (c *Config) ApplyLookup(lookup func(string) (string, bool)) {
	set := func(dst *string, name string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Region, EnvRegion)
	set(&c.AccessKeyID, EnvAccessKeyID)
	set(&c.SecretKey, EnvSecretKey)
	set(&c.SessionToken, EnvSessionToken)
	set(&c.Endpoint, EnvEndpoint)
}

// HasStaticCredentials возвращает true, если заданы статические ключи
func (c *Config) HasStaticCredentials() bool {
	return c.AccessKeyID != "" && c.SecretKey != ""
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("region cannot be empty")
	}

	if (c.AccessKeyID == "") != (c.SecretKey == "") {
		return fmt.Errorf("access_key_id and secret_key must be specified together")
	}

	if c.SessionToken != "" && !c.HasStaticCredentials() {
		return fmt.Errorf("session_token requires access_key_id and secret_key")
	}

	return nil
}
