package monitoring

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Enabled:               true,
		ListenAddress:         "127.0.0.1:0",
		MetricsPath:           "/metrics",
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          5 * time.Second,
		EnableSystemMetrics:   true,
		SystemMetricsInterval: 10 * time.Millisecond,
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.True(t, config.Enabled)
	assert.Equal(t, ":9091", config.ListenAddress)
	assert.Equal(t, "/metrics", config.MetricsPath)
	assert.True(t, config.EnableSystemMetrics)
	assert.NoError(t, config.Validate())
}

func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid", func(c *Config) {}, false},
		{"disabled skips checks", func(c *Config) { c.Enabled = false; c.ListenAddress = "" }, false},
		{"empty listen address", func(c *Config) { c.ListenAddress = "" }, true},
		{"relative metrics path", func(c *Config) { c.MetricsPath = "metrics" }, true},
		{"metrics path under health", func(c *Config) { c.MetricsPath = "/health/metrics" }, true},
		{"zero read timeout", func(c *Config) { c.ReadTimeout = 0 }, true},
		{"zero interval", func(c *Config) { c.SystemMetricsInterval = 0 }, true},
		{"zero interval without system metrics", func(c *Config) {
			c.SystemMetricsInterval = 0
			c.EnableSystemMetrics = false
		}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := testConfig()
			tc.mutate(c)
			err := c.Validate()
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	server := NewServer(testConfig(), prometheus.NewRegistry())
	handler := server.Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	server.MarkShuttingDown()

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"shutting down"}`, rr.Body.String())

	// live не зависит от shutdown
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "awsgateway_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Add(3)

	rr := httptest.NewRecorder()
	NewServer(testConfig(), registry).Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "awsgateway_test_total 3")
}

func TestSystemMetricsCollect(t *testing.T) {
	m := NewSystemMetrics(prometheus.NewRegistry())
	m.Collect()

	assert.Greater(t, testutil.ToFloat64(m.Goroutines), 0.0)
	assert.Greater(t, testutil.ToFloat64(m.HeapAlloc), 0.0)
}

func TestMonitorDisabled(t *testing.T) {
	monitor, err := New(&Config{Enabled: false}, nil)
	require.NoError(t, err)
	assert.False(t, monitor.IsEnabled())

	require.NoError(t, monitor.Start())
	assert.Nil(t, monitor.Addr())
	assert.NoError(t, monitor.Stop(context.Background()))
}

func TestNewMonitorWithInvalidConfig(t *testing.T) {
	c := testConfig()
	c.ListenAddress = ""

	_, err := New(c, nil)
	assert.Error(t, err)
}

func TestMonitorStartStop(t *testing.T) {
	registry := prometheus.NewRegistry()
	monitor, err := New(testConfig(), registry)
	require.NoError(t, err)

	require.NoError(t, monitor.Start())
	require.NotNil(t, monitor.Addr())
	base := "http://" + monitor.Addr().String()

	resp, err := http.Get(base + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && strings.Contains(string(body), "awsgateway_goroutines")
	}, 2*time.Second, 20*time.Millisecond)

	monitor.BeginShutdown()
	resp, err = http.Get(base + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, monitor.Stop(ctx))
}
