package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"awsgateway/apigw"
)

// newGateway собирает шлюз из реальных обработчиков поверх моков сервисов
func newGateway() *apigw.Gateway {
	return apigw.New(apigw.DefaultConfig(), apigw.NewMetrics(prometheus.NewRegistry()),
		NewS3Handler(&MockS3Service{}, 1<<20), NewSQSHandler(&MockQueueService{}))
}

func TestRoutesRejectWrongMethod(t *testing.T) {
	gw := newGateway()

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/aws/sqs/send"},
		{http.MethodPost, "/aws/sqs/receive"},
		{http.MethodGet, "/aws/sqs/delete"},
		{http.MethodPost, "/aws/s3/buckets"},
		{http.MethodPut, "/aws/s3/objects"},
		{http.MethodGet, "/aws/s3/upload"},
		{http.MethodGet, "/aws/s3/delete/object"},
		{http.MethodDelete, "/aws/s3/download"},
		{http.MethodGet, "/aws/s3/copy"},
		{http.MethodPost, "/aws/s3/presignedUrl"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			gw.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))

			assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
			assert.Equal(t, "method "+tc.method+" is not allowed for "+tc.path, rr.Body.String())
		})
	}
}

func TestRoutesUnknownPath(t *testing.T) {
	gw := newGateway()

	for _, path := range []string{"/aws/s3/unknown", "/aws/sqs", "/aws/sqs/send/extra"} {
		t.Run(path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			gw.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusNotFound, rr.Code)
			assert.Equal(t, "no handler for "+path, rr.Body.String())
		})
	}
}
