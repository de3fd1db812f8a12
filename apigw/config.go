package apigw

import (
	"fmt"
	"time"
)

// Config содержит конфигурацию для API Gateway
type Config struct {
	// ListenAddress - адрес и порт для прослушивания (например, ":8080")
	ListenAddress string `yaml:"listen_address"`

	// TLSCertFile - путь к файлу SSL-сертификата (опционально, для включения HTTPS)
	TLSCertFile string `yaml:"tls_cert_file"`

	// TLSKeyFile - путь к файлу приватного ключа SSL (опционально)
	TLSKeyFile string `yaml:"tls_key_file"`

	// ReadTimeout - таймаут на чтение всего запроса, включая тело
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout - таймаут на запись всего ответа.
	// Должен покрывать long polling SQS и скачивание больших объектов.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxUploadMemoryMB - сколько multipart-формы держать в памяти, остальное уходит во временные файлы
	MaxUploadMemoryMB int64 `yaml:"max_upload_memory_mb"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		ListenAddress:     ":8080",
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		MaxUploadMemoryMB: 32,
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen_address cannot be empty")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("both tls_cert_file and tls_key_file must be specified for TLS")
	}
	if c.MaxUploadMemoryMB <= 0 {
		return fmt.Errorf("max_upload_memory_mb must be positive")
	}
	return nil
}
