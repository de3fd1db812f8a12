package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awsgateway/logger"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// clearAWSEnv скрывает AWS_* из окружения на время теста
func clearAWSEnv(t *testing.T) {
	t.Helper()
	for _, name := range awsEnvVars {
		t.Setenv(name, "")
	}
}

var awsEnvVars = []string{"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN", "AWS_ENDPOINT_URL"}

func TestLoadConfigFromYAML(t *testing.T) {
	clearAWSEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
server:
  listen_address: ":9999"
  read_timeout: 5s
  write_timeout: 45s
  use_mock: true
  mock_buckets: [inbox]
logging:
  level: debug
aws:
  region: eu-central-1
  endpoint: http://localhost:4566
  use_path_style: true
s3:
  upload_part_size_mb: 16
monitoring:
  enabled: false
`)

	config, err := LoadConfig(path, filepath.Join(dir, "missing.env"))
	// Явно заданный, но отсутствующий env-файл - ошибка
	require.Error(t, err)
	assert.Nil(t, config)

	config, err = LoadConfig(path, writeFile(t, dir, "empty.env", ""))
	require.NoError(t, err)

	assert.Equal(t, ":9999", config.Server.ListenAddress)
	assert.Equal(t, 5*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, 45*time.Second, config.Server.WriteTimeout)
	assert.True(t, config.Server.UseMock)
	assert.Equal(t, []string{"inbox"}, config.Server.MockBuckets)
	assert.Equal(t, int64(32), config.Server.MaxUploadMemoryMB, "default kept")
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "eu-central-1", config.AWS.Region)
	assert.Equal(t, "http://localhost:4566", config.AWS.Endpoint)
	assert.True(t, config.AWS.UsePathStyle)
	assert.Equal(t, int64(16), config.S3.UploadPartSizeMB)
	assert.False(t, config.Monitoring.Enabled)
}

func TestLoadConfigEnvFileOverridesCredentials(t *testing.T) {
	// godotenv не перетирает уже заданные переменные, поэтому их удаляем;
	// t.Setenv вернет прежние значения после теста
	clearAWSEnv(t)
	for _, name := range awsEnvVars {
		require.NoError(t, os.Unsetenv(name))
	}

	dir := t.TempDir()
	envFile := writeFile(t, dir, "aws.env", "AWS_REGION=ap-south-1\nAWS_ACCESS_KEY_ID=AKIDEXAMPLE\nAWS_SECRET_ACCESS_KEY=secret\n")

	config, err := LoadConfig("", envFile)
	require.NoError(t, err)

	assert.Equal(t, "ap-south-1", config.AWS.Region)
	assert.Equal(t, "AKIDEXAMPLE", config.AWS.AccessKeyID)
	assert.Equal(t, "secret", config.AWS.SecretKey)

	redacted := config.Redacted()
	assert.Equal(t, "******", redacted.AWS.SecretKey)
	assert.Equal(t, "secret", config.AWS.SecretKey, "source config untouched")
}

func TestLoadConfigErrors(t *testing.T) {
	clearAWSEnv(t)
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"), "")
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, dir, "bad.yaml", "server: [unterminated"), "")
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, dir, "level.yaml", "logging:\n  level: verbose\n"), "")
	assert.ErrorContains(t, err, "invalid logging level")
}

func TestAppConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *AppConfig)
	}{
		{"server", func(c *AppConfig) { c.Server.ListenAddress = "" }},
		{"aws", func(c *AppConfig) { c.AWS.AccessKeyID = "AKID" }},
		{"s3", func(c *AppConfig) { c.S3.UploadConcurrency = 0 }},
		{"monitoring", func(c *AppConfig) { c.Monitoring.MetricsPath = "" }},
	}

	require.NoError(t, DefaultAppConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultAppConfig()
			tt.mutate(c)
			assert.ErrorContains(t, c.Validate(), tt.name+" config")
		})
	}
}

// captureGlobalLog перенаправляет глобальный логгер в буфер до конца теста
func captureGlobalLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	level := logger.GetGlobalLevel()
	logger.Global().SetOutput(&buf)
	t.Cleanup(func() {
		logger.Global().SetOutput(os.Stdout)
		logger.SetGlobalLevel(level)
	})
	return &buf
}

func TestApplyCommandLineOverrides(t *testing.T) {
	captureGlobalLog(t)
	config := DefaultAppConfig()
	applyCommandLineOverrides(config, overrides{
		listenAddr:     ":7000",
		writeTimeout:   2 * time.Minute,
		useMock:        true,
		logLevel:       "warn",
		region:         "us-west-2",
		endpoint:       "http://localhost:4566",
		disableMetrics: true,
	})

	assert.Equal(t, ":7000", config.Server.ListenAddress)
	assert.Equal(t, 60*time.Second, config.Server.ReadTimeout, "zero override ignored")
	assert.Equal(t, 2*time.Minute, config.Server.WriteTimeout)
	assert.True(t, config.Server.UseMock)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, "us-west-2", config.AWS.Region)
	assert.Equal(t, "http://localhost:4566", config.AWS.Endpoint)
	assert.False(t, config.Monitoring.Enabled)
}

func TestOverridesLoggedAtDebugLevel(t *testing.T) {
	buf := captureGlobalLog(t)
	logger.SetGlobalLevel(logger.INFO)

	config := DefaultAppConfig()
	applyCommandLineOverrides(config, overrides{logLevel: "debug", region: "eu-north-1"})

	assert.Equal(t, logger.DEBUG, logger.GetGlobalLevel())
	assert.Contains(t, buf.String(), "Override: logging.level = debug")
	assert.Contains(t, buf.String(), "Override: aws.region = eu-north-1")
}

func TestOverridesUseConfiguredLevel(t *testing.T) {
	buf := captureGlobalLog(t)

	config := DefaultAppConfig()
	config.Logging.Level = "error"
	applyCommandLineOverrides(config, overrides{region: "eu-north-1"})

	assert.Equal(t, logger.ERROR, logger.GetGlobalLevel())
	assert.Empty(t, buf.String())
}

func TestSaveConfigRoundTrip(t *testing.T) {
	clearAWSEnv(t)
	path := filepath.Join(t.TempDir(), "out.yaml")
	config := DefaultAppConfig()
	config.AWS.Region = "sa-east-1"
	require.NoError(t, config.SaveConfig(path))

	loaded, err := LoadConfig(path, writeFile(t, t.TempDir(), "empty.env", ""))
	require.NoError(t, err)
	assert.Equal(t, "sa-east-1", loaded.AWS.Region)
	assert.Equal(t, config.Server.ReadTimeout, loaded.Server.ReadTimeout)
}
