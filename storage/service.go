package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/gabriel-vasile/mimetype"

	"awsgateway/logger"
)

var log = logger.Named("s3")

// sniffLen - сколько байт читается для определения Content-Type
const sniffLen = 512

const defaultContentType = "application/octet-stream"

// Service выполняет операции S3. Каждая операция - один вызов SDK.
type Service struct {
	client    S3API
	presigner PresignAPI
	uploader  *manager.Uploader
	metrics   *Metrics
}

// NewService создает сервис S3
func NewService(client S3API, presigner PresignAPI, cfg *Config, metrics *Metrics) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = cfg.UploadPartSizeMB * 1024 * 1024
		u.Concurrency = cfg.UploadConcurrency
	})

	return &Service{
		client:    client,
		presigner: presigner,
		uploader:  uploader,
		metrics:   metrics,
	}
}

// ListBuckets возвращает имена всех бакетов аккаунта
func (s *Service) ListBuckets(ctx context.Context) ([]string, error) {
	start := time.Now()

	buckets := []string{}
	paginator := s3.NewListBucketsPaginator(s.client, &s3.ListBucketsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.observe("ListBuckets", start, err)
			logAWSError("Error listing buckets", err)
			return nil, fmt.Errorf("failed to list buckets: %w", err)
		}
		for _, b := range page.Buckets {
			buckets = append(buckets, aws.ToString(b.Name))
		}
	}

	s.observe("ListBuckets", start, nil)
	log.Info("Listed %d buckets.", len(buckets))
	return buckets, nil
}

// ListObjects возвращает ключи всех объектов бакета
func (s *Service) ListObjects(ctx context.Context, bucket string) ([]string, error) {
	start := time.Now()

	keys := []string{}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.observe("ListObjectsV2", start, err)
			logAWSError(fmt.Sprintf("Error listing objects in bucket %s", bucket), err)
			return nil, fmt.Errorf("failed to list objects in bucket %s: %w", bucket, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	s.observe("ListObjectsV2", start, nil)
	log.Info("Found %d objects in bucket '%s'.", len(keys), bucket)
	return keys, nil
}

// Upload загружает файл в бакет
func (s *Service) Upload(ctx context.Context, in UploadInput) error {
	start := time.Now()

	body, contentType, err := detectContentType(in.Body, in.ContentType)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	counting := newCountingReader(body)
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(in.Bucket),
		Key:         aws.String(in.Key),
		Body:        counting,
		ContentType: aws.String(contentType),
	})
	s.observe("PutObject", start, err)
	if err != nil {
		logAWSError(fmt.Sprintf("Error uploading file '%s' to bucket %s", in.Key, in.Bucket), err)
		return fmt.Errorf("failed to upload file: %w", err)
	}

	s.metrics.BytesUploaded.Add(float64(counting.Count()))
	log.Info("Uploaded file '%s' to bucket '%s' (%d bytes, %s).", in.Key, in.Bucket, counting.Count(), contentType)
	if in.Size > 0 && counting.Count() != in.Size {
		log.Warn("Uploaded size of '%s' differs from declared: %d != %d", in.Key, counting.Count(), in.Size)
	}
	return nil
}

// Delete удаляет объект из бакета
func (s *Service) Delete(ctx context.Context, bucket, key string) error {
	start := time.Now()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	s.observe("DeleteObject", start, err)
	if err != nil {
		logAWSError(fmt.Sprintf("Error deleting object '%s' from bucket %s", key, bucket), err)
		return fmt.Errorf("failed to delete object: %w", err)
	}

	log.Info("Deleted object '%s' from bucket '%s'.", key, bucket)
	return nil
}

// Download открывает объект для чтения. Тело передается потоком.
func (s *Service) Download(ctx context.Context, bucket, key string) (*Object, error) {
	start := time.Now()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	s.observe("GetObject", start, err)
	if err != nil {
		logAWSError(fmt.Sprintf("Error downloading object '%s' from bucket %s", key, bucket), err)
		return nil, fmt.Errorf("failed to download object: %w", err)
	}

	length := int64(-1)
	if out.ContentLength != nil {
		length = *out.ContentLength
	}

	log.Info("Downloaded object '%s' from bucket '%s'.", key, bucket)
	return &Object{
		Body:          &meteredBody{body: out.Body, counter: s.metrics.BytesDownloaded},
		ContentLength: length,
		ContentType:   aws.ToString(out.ContentType),
		ETag:          aws.ToString(out.ETag),
		LastModified:  aws.ToTime(out.LastModified),
	}, nil
}

// Copy копирует объект
func (s *Service) Copy(ctx context.Context, in CopyInput) error {
	start := time.Now()

	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		CopySource: aws.String(copySource(in.SourceBucket, in.SourceKey)),
		Bucket:     aws.String(in.DestinationBucket),
		Key:        aws.String(in.DestinationKey),
	})
	s.observe("CopyObject", start, err)
	if err != nil {
		logAWSError(fmt.Sprintf("Error copying object from %s/%s to %s/%s",
			in.SourceBucket, in.SourceKey, in.DestinationBucket, in.DestinationKey), err)
		return fmt.Errorf("failed to copy object: %w", err)
	}

	log.Info("Copied object from %s/%s to %s/%s.", in.SourceBucket, in.SourceKey, in.DestinationBucket, in.DestinationKey)
	return nil
}

// PresignGet генерирует presigned URL для скачивания объекта
func (s *Service) PresignGet(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	start := time.Now()

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	s.observe("PresignGetObject", start, err)
	if err != nil {
		logAWSError(fmt.Sprintf("Error generating pre-signed URL for object '%s' in bucket %s", key, bucket), err)
		return "", fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	s.metrics.PresignedURLsTotal.Inc()
	log.Info("Generated pre-signed URL for object '%s' in bucket '%s' (expires in %v).", key, bucket, expires)
	return req.URL, nil
}

func (s *Service) observe(operation string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	s.metrics.RequestsTotal.WithLabelValues(operation, result).Inc()
	s.metrics.RequestLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// detectContentType возвращает тело (с уже прочитанным префиксом) и тип содержимого.
// Явно заданный тип, кроме application/octet-stream, берется как есть.
func detectContentType(body io.Reader, declared string) (io.Reader, string, error) {
	if declared != "" && declared != defaultContentType {
		return body, declared, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", err
	}
	head = head[:n]

	contentType := defaultContentType
	if n > 0 {
		contentType = mimetype.Detect(head).String()
	}

	return io.MultiReader(bytes.NewReader(head), body), contentType, nil
}

// copySource формирует значение x-amz-copy-source: bucket/key с экранированием сегментов пути
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

// logAWSError логирует ошибку SDK вместе с кодом ошибки AWS, если он есть
func logAWSError(msg string, err error) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		log.Error("%s: [%s] %s", msg, apiErr.ErrorCode(), apiErr.ErrorMessage())
		return
	}
	log.Error("%s: %v", msg, err)
}
