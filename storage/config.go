package storage

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
)

// Config содержит настройки работы с S3
type Config struct {
	// UploadPartSizeMB - размер части multipart-загрузки в мегабайтах
	UploadPartSizeMB int64 `yaml:"upload_part_size_mb"`

	// UploadConcurrency - количество параллельно загружаемых частей
	UploadConcurrency int `yaml:"upload_concurrency"`
}

// DefaultConfig возвращает конфигурацию по умолчанию (значения SDK)
func DefaultConfig() *Config {
	return &Config{
		UploadPartSizeMB:  manager.DefaultUploadPartSize / (1024 * 1024),
		UploadConcurrency: manager.DefaultUploadConcurrency,
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.UploadPartSizeMB*1024*1024 < manager.MinUploadPartSize {
		return fmt.Errorf("upload_part_size_mb must be at least %d", manager.MinUploadPartSize/(1024*1024))
	}

	if c.UploadConcurrency <= 0 {
		return fmt.Errorf("upload_concurrency must be positive")
	}

	return nil
}
