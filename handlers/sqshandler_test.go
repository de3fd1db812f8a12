package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"awsgateway/queue"
)

const queueURL = "https://sqs.us-east-1.amazonaws.com/123456789012/orders"

type MockQueueService struct {
	mock.Mock
}

func (m *MockQueueService) Send(ctx context.Context, queueURL, body string) (string, error) {
	args := m.Called(ctx, queueURL, body)
	return args.String(0), args.Error(1)
}

func (m *MockQueueService) Receive(ctx context.Context, queueURL string, maxMessages, waitTimeSeconds int32) ([]queue.Message, error) {
	args := m.Called(ctx, queueURL, maxMessages, waitTimeSeconds)
	messages, _ := args.Get(0).([]queue.Message)
	return messages, args.Error(1)
}

func (m *MockQueueService) Delete(ctx context.Context, queueURL, receiptHandle string) error {
	return m.Called(ctx, queueURL, receiptHandle).Error(0)
}

func serveSQS(t *testing.T, service *MockQueueService, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	router := mux.NewRouter()
	NewSQSHandler(service).RegisterRoutes(router)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestSendMessage(t *testing.T) {
	service := &MockQueueService{}
	service.On("Send", mock.Anything, queueURL, "order #42").Return("msg-1", nil).Once()

	q := url.Values{"queueUrl": {queueURL}, "message": {"order #42"}}
	rr := serveSQS(t, service, httptest.NewRequest(http.MethodPost, "/aws/sqs/send?"+q.Encode(), nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Message sent. Message ID: msg-1", rr.Body.String())
	service.AssertExpectations(t)
}

func TestSendMessageFromForm(t *testing.T) {
	service := &MockQueueService{}
	service.On("Send", mock.Anything, queueURL, "hello").Return("msg-2", nil).Once()

	form := url.Values{"queueUrl": {queueURL}, "message": {"hello"}}
	req := httptest.NewRequest(http.MethodPost, "/aws/sqs/send", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := serveSQS(t, service, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Message sent. Message ID: msg-2", rr.Body.String())
}

func TestSendMessageValidationAndError(t *testing.T) {
	service := &MockQueueService{}
	rr := serveSQS(t, service, httptest.NewRequest(http.MethodPost, "/aws/sqs/send?queueUrl=q", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "'message'")

	service.On("Send", mock.Anything, "q", "m").Return("", errors.New("failed to send message: QueueDoesNotExist")).Once()
	rr = serveSQS(t, service, httptest.NewRequest(http.MethodPost, "/aws/sqs/send?queueUrl=q&message=m", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error sending message: failed to send message: QueueDoesNotExist", rr.Body.String())
}

func TestReceiveMessages(t *testing.T) {
	service := &MockQueueService{}
	service.On("Receive", mock.Anything, queueURL, int32(10), int32(10)).Return([]queue.Message{
		{MessageID: "m1", Body: "first", ReceiptHandle: "rh1"},
		{MessageID: "m2", Body: "second", ReceiptHandle: "rh2"},
	}, nil).Once()

	q := url.Values{"queueUrl": {queueURL}}
	rr := serveSQS(t, service, httptest.NewRequest(http.MethodGet, "/aws/sqs/receive?"+q.Encode(), nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[
		"MessageId: m1, Body: first, ReceiptHandle: rh1",
		"MessageId: m2, Body: second, ReceiptHandle: rh2"
	]`, rr.Body.String())
	service.AssertExpectations(t)
}

func TestReceiveMessagesCustomParams(t *testing.T) {
	service := &MockQueueService{}
	service.On("Receive", mock.Anything, queueURL, int32(3), int32(0)).Return([]queue.Message{}, nil).Once()

	q := url.Values{"queueUrl": {queueURL}, "maxMessages": {"3"}, "waitTimeSeconds": {"0"}}
	rr := serveSQS(t, service, httptest.NewRequest(http.MethodGet, "/aws/sqs/receive?"+q.Encode(), nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
	service.AssertExpectations(t)
}

func TestReceiveMessagesBadRequest(t *testing.T) {
	for _, query := range []string{
		"maxMessages=1",
		"queueUrl=q&maxMessages=ten",
		"queueUrl=q&waitTimeSeconds=1.5",
	} {
		t.Run(query, func(t *testing.T) {
			service := &MockQueueService{}
			rr := serveSQS(t, service, httptest.NewRequest(http.MethodGet, "/aws/sqs/receive?"+query, nil))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			service.AssertNotCalled(t, "Receive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestReceiveMessagesError(t *testing.T) {
	service := &MockQueueService{}
	service.On("Receive", mock.Anything, "q", int32(10), int32(10)).Return(nil, errors.New("failed to receive messages: throttled")).Once()

	rr := serveSQS(t, service, httptest.NewRequest(http.MethodGet, "/aws/sqs/receive?queueUrl=q", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error receiving messages: failed to receive messages: throttled", rr.Body.String())
}

func TestDeleteMessage(t *testing.T) {
	service := &MockQueueService{}
	service.On("Delete", mock.Anything, queueURL, "AQEB+/abc==").Return(nil).Once()

	body := `{"queueUrl":"` + queueURL + `","receiptHandle":"AQEB+/abc=="}`
	rr := serveSQS(t, service, httptest.NewRequest(http.MethodDelete, "/aws/sqs/delete", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Message deleted successfully.", rr.Body.String())
	service.AssertExpectations(t)
}

func TestDeleteMessageBadRequest(t *testing.T) {
	for name, body := range map[string]string{
		"empty body":       "",
		"missing handle":   `{"queueUrl":"q"}`,
		"missing queueUrl": `{"receiptHandle":"h"}`,
	} {
		t.Run(name, func(t *testing.T) {
			service := &MockQueueService{}
			rr := serveSQS(t, service, httptest.NewRequest(http.MethodDelete, "/aws/sqs/delete", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			service.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDeleteMessageError(t *testing.T) {
	service := &MockQueueService{}
	service.On("Delete", mock.Anything, "q", "h").Return(errors.New("failed to delete message: ReceiptHandleIsInvalid")).Once()

	rr := serveSQS(t, service, httptest.NewRequest(http.MethodDelete, "/aws/sqs/delete", strings.NewReader(`{"queueUrl":"q","receiptHandle":"h"}`)))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error deleting message: failed to delete message: ReceiptHandleIsInvalid", rr.Body.String())
}
