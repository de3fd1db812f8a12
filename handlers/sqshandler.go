package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"awsgateway/apigw"
	"awsgateway/logger"
	"awsgateway/queue"
)

var sqslog = logger.Named("handlers.sqs")

const sqsPrefix = "/aws/sqs"

// Значения по умолчанию для ReceiveMessage. Диапазоны проверяет сам SQS.
const (
	defaultMaxMessages     = 10
	defaultWaitTimeSeconds = 10
)

// SQSHandler обслуживает эндпоинты /aws/sqs/*
type SQSHandler struct {
	service        QueueService
	responseWriter *apigw.ResponseWriter
}

// NewSQSHandler создает обработчик
func NewSQSHandler(service QueueService) *SQSHandler {
	return &SQSHandler{
		service:        service,
		responseWriter: apigw.NewResponseWriter(),
	}
}

// RegisterRoutes реализует apigw.Registrar
func (h *SQSHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc(sqsPrefix+"/send", h.send).Methods(http.MethodPost)
	r.HandleFunc(sqsPrefix+"/receive", h.receive).Methods(http.MethodGet)
	r.HandleFunc(sqsPrefix+"/delete", h.delete).Methods(http.MethodDelete)
}

func (h *SQSHandler) send(w http.ResponseWriter, r *http.Request) {
	params := apigw.NewParams(r)
	queueURL, err := params.Required("queueUrl")
	if err != nil {
		h.responseWriter.WriteError(w, err)
		return
	}
	message, err := params.Required("message")
	if err != nil {
		h.responseWriter.WriteError(w, err)
		return
	}

	id, err := h.service.Send(r.Context(), queueURL, message)
	if err != nil {
		sqslog.Error("Error in sendMessage endpoint: %v", err)
		h.responseWriter.WriteError(w, apigw.InternalError("Error sending message", err))
		return
	}

	response := "Message sent. Message ID: " + id
	sqslog.Info("%s", response)
	h.responseWriter.WriteText(w, http.StatusOK, response)
}

func (h *SQSHandler) receive(w http.ResponseWriter, r *http.Request) {
	params := apigw.NewParams(r)
	queueURL, err := params.Required("queueUrl")
	if err != nil {
		h.responseWriter.WriteError(w, err)
		return
	}
	maxMessages, err := params.Int32("maxMessages", defaultMaxMessages)
	if err != nil {
		h.responseWriter.WriteError(w, err)
		return
	}
	waitTime, err := params.Int32("waitTimeSeconds", defaultWaitTimeSeconds)
	if err != nil {
		h.responseWriter.WriteError(w, err)
		return
	}

	messages, err := h.service.Receive(r.Context(), queueURL, maxMessages, waitTime)
	if err != nil {
		sqslog.Error("Error in receiveMessages endpoint: %v", err)
		h.responseWriter.WriteError(w, apigw.InternalError("Error receiving messages", err))
		return
	}

	response := make([]string, 0, len(messages))
	for _, m := range messages {
		response = append(response, formatMessage(m))
	}

	sqslog.Info("Returning %d messages from queue %s", len(response), queueURL)
	h.responseWriter.WriteJSON(w, http.StatusOK, response)
}

// deleteRequest - тело запроса DELETE /aws/sqs/delete.
// ReceiptHandle содержит символы, неудобные в query string, поэтому передается в JSON.
type deleteRequest struct {
	QueueURL      string `json:"queueUrl"`
	ReceiptHandle string `json:"receiptHandle"`
}

func (h *SQSHandler) delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := apigw.DecodeJSON(r, &req); err != nil {
		h.responseWriter.WriteError(w, err)
		return
	}
	if err := apigw.RequireFields(
		[2]string{"queueUrl", req.QueueURL},
		[2]string{"receiptHandle", req.ReceiptHandle},
	); err != nil {
		h.responseWriter.WriteError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), req.QueueURL, req.ReceiptHandle); err != nil {
		sqslog.Error("Error in deleteMessage endpoint: %v", err)
		h.responseWriter.WriteError(w, apigw.InternalError("Error deleting message", err))
		return
	}

	sqslog.Info("Message deleted from queue %s", req.QueueURL)
	h.responseWriter.WriteText(w, http.StatusOK, "Message deleted successfully.")
}

func formatMessage(m queue.Message) string {
	return "MessageId: " + m.MessageID + ", Body: " + m.Body + ", ReceiptHandle: " + m.ReceiptHandle
}
