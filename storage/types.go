package storage

import (
	"context"
	"io"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API - подмножество методов *s3.Client, которые использует сервис.
// Включает manager.UploadAPIClient, так как загрузка идет через Uploader.
type S3API interface {
	manager.UploadAPIClient

	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

// PresignAPI - подмножество методов *s3.PresignClient
type PresignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	_ S3API      = (*s3.Client)(nil)
	_ PresignAPI = (*s3.PresignClient)(nil)
)

// Object - скачиваемый объект. Body должен быть закрыт вызывающей стороной.
type Object struct {
	Body io.ReadCloser
	// ContentLength равен -1, если S3 не вернул длину
	ContentLength int64
	ContentType   string
	ETag          string
	LastModified  time.Time
}

// UploadInput описывает загружаемый файл
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	Size        int64  // Размер из multipart-формы, только для логов и метрик
	ContentType string // Если пустой или application/octet-stream, определяется по содержимому
}

// CopyInput описывает копирование объекта
type CopyInput struct {
	SourceBucket      string
	SourceKey         string
	DestinationBucket string
	DestinationKey    string
}
