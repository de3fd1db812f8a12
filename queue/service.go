package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/smithy-go"

	"awsgateway/logger"
)

var log = logger.Named("sqs")

// Service выполняет операции SQS
type Service struct {
	client  SQSAPI
	metrics *Metrics
}

// NewService создает сервис SQS
func NewService(client SQSAPI, metrics *Metrics) *Service {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Service{
		client:  client,
		metrics: metrics,
	}
}

// Send отправляет сообщение и возвращает его ID
func (s *Service) Send(ctx context.Context, queueURL, body string) (string, error) {
	start := time.Now()

	out, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(body),
	})
	s.observe("SendMessage", start, err)
	if err != nil {
		logAWSError(fmt.Sprintf("Error sending message to queue %s", queueURL), err)
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	messageID := aws.ToString(out.MessageId)
	log.Info("Message sent successfully. Message ID: %s", messageID)
	return messageID, nil
}

// Receive получает до maxMessages сообщений, ожидая до waitTimeSeconds (long polling)
func (s *Service) Receive(ctx context.Context, queueURL string, maxMessages, waitTimeSeconds int32) ([]Message, error) {
	start := time.Now()

	out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(queueURL),
		MaxNumberOfMessages: maxMessages,
		WaitTimeSeconds:     waitTimeSeconds,
	})
	s.observe("ReceiveMessage", start, err)
	if err != nil {
		logAWSError(fmt.Sprintf("Error receiving messages from queue %s", queueURL), err)
		return nil, fmt.Errorf("failed to receive messages: %w", err)
	}

	messages := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		messages = append(messages, Message{
			MessageID:     aws.ToString(m.MessageId),
			Body:          aws.ToString(m.Body),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}

	s.metrics.MessagesReceived.Add(float64(len(messages)))
	log.Info("Received %d messages from queue %s", len(messages), queueURL)
	return messages, nil
}

// Delete удаляет сообщение по receipt handle
func (s *Service) Delete(ctx context.Context, queueURL, receiptHandle string) error {
	start := time.Now()

	_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	s.observe("DeleteMessage", start, err)
	if err != nil {
		logAWSError(fmt.Sprintf("Error deleting message from queue %s", queueURL), err)
		return fmt.Errorf("failed to delete message: %w", err)
	}

	log.Info("Deleted message with receipt handle %s from queue %s", receiptHandle, queueURL)
	return nil
}

func (s *Service) observe(operation string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	s.metrics.RequestsTotal.WithLabelValues(operation, result).Inc()
	s.metrics.RequestLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func logAWSError(msg string, err error) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		log.Error("%s: [%s] %s", msg, apiErr.ErrorCode(), apiErr.ErrorMessage())
		return
	}
	log.Error("%s: %v", msg, err)
}
