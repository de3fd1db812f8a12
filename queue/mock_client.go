package queue

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
)

// MemoryClient - in-memory реализация SQSAPI для режима use_mock и тестов.
// WaitTimeSeconds игнорируется: пустая очередь отвечает сразу.
type MemoryClient struct {
	mu     sync.Mutex
	queues map[string][]*memoryMessage

	// VisibilityTimeout - время, на которое полученное сообщение скрывается
	VisibilityTimeout time.Duration

	now func() time.Time
}

type memoryMessage struct {
	id            string
	body          string
	receiptHandle string
	invisibleTill time.Time
}

var _ SQSAPI = (*MemoryClient)(nil)

// NewMemoryClient создает клиент с заданными пустыми очередями
func NewMemoryClient(queueURLs ...string) *MemoryClient {
	c := &MemoryClient{
		queues:            make(map[string][]*memoryMessage),
		VisibilityTimeout: 30 * time.Second,
		now:               time.Now,
	}
	for _, u := range queueURLs {
		c.queues[u] = nil
	}
	return c
}

// Len возвращает количество сообщений в очереди, включая скрытые
func (c *MemoryClient) Len(queueURL string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queues[queueURL])
}

func (c *MemoryClient) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	queueURL := aws.ToString(params.QueueUrl)
	if _, ok := c.queues[queueURL]; !ok {
		return nil, queueDoesNotExist()
	}

	msg := &memoryMessage{
		id:   uuid.NewString(),
		body: aws.ToString(params.MessageBody),
	}
	c.queues[queueURL] = append(c.queues[queueURL], msg)
	return &sqs.SendMessageOutput{MessageId: aws.String(msg.id)}, nil
}

func (c *MemoryClient) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	queueURL := aws.ToString(params.QueueUrl)
	messages, ok := c.queues[queueURL]
	if !ok {
		return nil, queueDoesNotExist()
	}

	limit := int(params.MaxNumberOfMessages)
	if limit <= 0 {
		limit = 1
	}

	now := c.now()
	out := &sqs.ReceiveMessageOutput{}
	for _, msg := range messages {
		if len(out.Messages) >= limit {
			break
		}
		if now.Before(msg.invisibleTill) {
			continue
		}
		msg.receiptHandle = uuid.NewString()
		msg.invisibleTill = now.Add(c.VisibilityTimeout)
		out.Messages = append(out.Messages, types.Message{
			MessageId:     aws.String(msg.id),
			Body:          aws.String(msg.body),
			ReceiptHandle: aws.String(msg.receiptHandle),
		})
	}
	return out, nil
}

func (c *MemoryClient) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	queueURL := aws.ToString(params.QueueUrl)
	messages, ok := c.queues[queueURL]
	if !ok {
		return nil, queueDoesNotExist()
	}

	handle := aws.ToString(params.ReceiptHandle)
	for i, msg := range messages {
		if handle != "" && msg.receiptHandle == handle {
			c.queues[queueURL] = append(messages[:i], messages[i+1:]...)
			return &sqs.DeleteMessageOutput{}, nil
		}
	}
	return nil, &types.ReceiptHandleIsInvalid{Message: aws.String("The input receipt handle is invalid.")}
}

func queueDoesNotExist() error {
	return &types.QueueDoesNotExist{Message: aws.String("The specified queue does not exist.")}
}
