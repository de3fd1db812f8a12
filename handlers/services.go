package handlers

import (
	"context"
	"time"

	"awsgateway/queue"
	"awsgateway/storage"
)

// S3Service - операции S3, которые использует S3Handler
type S3Service interface {
	ListBuckets(ctx context.Context) ([]string, error)
	ListObjects(ctx context.Context, bucket string) ([]string, error)
	Upload(ctx context.Context, in storage.UploadInput) error
	Delete(ctx context.Context, bucket, key string) error
	Download(ctx context.Context, bucket, key string) (*storage.Object, error)
	Copy(ctx context.Context, in storage.CopyInput) error
	PresignGet(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

// QueueService - операции SQS, которые использует SQSHandler
type QueueService interface {
	Send(ctx context.Context, queueURL, body string) (string, error)
	Receive(ctx context.Context, queueURL string, maxMessages, waitTimeSeconds int32) ([]queue.Message, error)
	Delete(ctx context.Context, queueURL, receiptHandle string) error
}

var (
	_ S3Service    = (*storage.Service)(nil)
	_ QueueService = (*queue.Service)(nil)
)
