package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// MemoryClient - in-memory реализация S3API и PresignAPI для режима use_mock и тестов
type MemoryClient struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*memoryObject
	uploads map[string]*memoryUpload
	nextID  int

	// PageSize ограничивает размер страницы ListObjectsV2 (0 - 1000)
	PageSize int
}

type memoryObject struct {
	data         []byte
	contentType  string
	etag         string
	lastModified time.Time
}

type memoryUpload struct {
	bucket      string
	key         string
	contentType string
	parts       map[int32][]byte
}

var (
	_ S3API      = (*MemoryClient)(nil)
	_ PresignAPI = (*MemoryClient)(nil)
)

// NewMemoryClient создает клиент с заданными пустыми бакетами
func NewMemoryClient(buckets ...string) *MemoryClient {
	c := &MemoryClient{
		buckets: make(map[string]map[string]*memoryObject),
		uploads: make(map[string]*memoryUpload),
	}
	for _, b := range buckets {
		c.buckets[b] = make(map[string]*memoryObject)
	}
	return c
}

// Object возвращает содержимое объекта (для тестов)
func (c *MemoryClient) Object(bucket, key string) ([]byte, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := c.buckets[bucket][key]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), obj.data...), obj.contentType, true
}

func (c *MemoryClient) ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.buckets))
	for name := range c.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := &s3.ListBucketsOutput{}
	for _, name := range names {
		out.Buckets = append(out.Buckets, types.Bucket{Name: aws.String(name)})
	}
	return out, nil
}

func (c *MemoryClient) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	bucket := aws.ToString(params.Bucket)
	objects, ok := c.buckets[bucket]
	if !ok {
		return nil, noSuchBucket(bucket)
	}

	keys := make([]string, 0, len(objects))
	for key := range objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	start := 0
	if token := aws.ToString(params.ContinuationToken); token != "" {
		n, err := strconv.Atoi(token)
		if err != nil {
			return nil, &types.NoSuchKey{Message: aws.String("invalid continuation token")}
		}
		start = n
	}

	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	end := start + pageSize
	if end > len(keys) {
		end = len(keys)
	}

	out := &s3.ListObjectsV2Output{
		Name:        params.Bucket,
		KeyCount:    aws.Int32(int32(end - start)),
		IsTruncated: aws.Bool(end < len(keys)),
	}
	for _, key := range keys[start:end] {
		obj := objects[key]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(obj.data))),
			ETag:         aws.String(obj.etag),
			LastModified: aws.Time(obj.lastModified),
		})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (c *MemoryClient) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	bucket, key := aws.ToString(params.Bucket), aws.ToString(params.Key)
	objects, ok := c.buckets[bucket]
	if !ok {
		return nil, noSuchBucket(bucket)
	}
	obj, ok := objects[key]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}

	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentLength: aws.Int64(int64(len(obj.data))),
		ContentType:   aws.String(obj.contentType),
		ETag:          aws.String(obj.etag),
		LastModified:  aws.Time(obj.lastModified),
	}, nil
}

func (c *MemoryClient) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	var data []byte
	if params.Body != nil {
		var err error
		if data, err = io.ReadAll(params.Body); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	bucket := aws.ToString(params.Bucket)
	objects, ok := c.buckets[bucket]
	if !ok {
		return nil, noSuchBucket(bucket)
	}

	obj := newMemoryObject(data, aws.ToString(params.ContentType))
	objects[aws.ToString(params.Key)] = obj
	return &s3.PutObjectOutput{ETag: aws.String(obj.etag)}, nil
}

func (c *MemoryClient) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bucket := aws.ToString(params.Bucket)
	objects, ok := c.buckets[bucket]
	if !ok {
		return nil, noSuchBucket(bucket)
	}
	// Как и S3, удаление несуществующего ключа не является ошибкой
	delete(objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (c *MemoryClient) CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	source, err := url.PathUnescape(aws.ToString(params.CopySource))
	if err != nil {
		return nil, fmt.Errorf("invalid copy source: %w", err)
	}
	srcBucket, srcKey, found := strings.Cut(strings.TrimPrefix(source, "/"), "/")
	if !found {
		return nil, fmt.Errorf("invalid copy source %q", source)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	srcObjects, ok := c.buckets[srcBucket]
	if !ok {
		return nil, noSuchBucket(srcBucket)
	}
	src, ok := srcObjects[srcKey]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}

	dstBucket := aws.ToString(params.Bucket)
	dstObjects, ok := c.buckets[dstBucket]
	if !ok {
		return nil, noSuchBucket(dstBucket)
	}

	obj := newMemoryObject(append([]byte(nil), src.data...), src.contentType)
	dstObjects[aws.ToString(params.Key)] = obj
	return &s3.CopyObjectOutput{
		CopyObjectResult: &types.CopyObjectResult{
			ETag:         aws.String(obj.etag),
			LastModified: aws.Time(obj.lastModified),
		},
	}, nil
}

func (c *MemoryClient) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bucket := aws.ToString(params.Bucket)
	if _, ok := c.buckets[bucket]; !ok {
		return nil, noSuchBucket(bucket)
	}

	c.nextID++
	uploadID := fmt.Sprintf("upload-%d", c.nextID)
	c.uploads[uploadID] = &memoryUpload{
		bucket:      bucket,
		key:         aws.ToString(params.Key),
		contentType: aws.ToString(params.ContentType),
		parts:       make(map[int32][]byte),
	}
	return &s3.CreateMultipartUploadOutput{
		Bucket:   params.Bucket,
		Key:      params.Key,
		UploadId: aws.String(uploadID),
	}, nil
}

func (c *MemoryClient) UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	upload, ok := c.uploads[aws.ToString(params.UploadId)]
	if !ok {
		return nil, &types.NoSuchUpload{Message: aws.String("The specified upload does not exist.")}
	}
	upload.parts[aws.ToInt32(params.PartNumber)] = data
	return &s3.UploadPartOutput{ETag: aws.String(etagOf(data))}, nil
}

func (c *MemoryClient) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	uploadID := aws.ToString(params.UploadId)
	upload, ok := c.uploads[uploadID]
	if !ok {
		return nil, &types.NoSuchUpload{Message: aws.String("The specified upload does not exist.")}
	}

	var data []byte
	if params.MultipartUpload != nil {
		for _, part := range params.MultipartUpload.Parts {
			data = append(data, upload.parts[aws.ToInt32(part.PartNumber)]...)
		}
	}

	obj := newMemoryObject(data, upload.contentType)
	c.buckets[upload.bucket][upload.key] = obj
	delete(c.uploads, uploadID)

	return &s3.CompleteMultipartUploadOutput{
		Bucket: aws.String(upload.bucket),
		Key:    aws.String(upload.key),
		ETag:   aws.String(obj.etag),
	}, nil
}

func (c *MemoryClient) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.uploads, aws.ToString(params.UploadId))
	return &s3.AbortMultipartUploadOutput{}, nil
}

// PresignGetObject возвращает фиктивный URL, без реальной подписи
func (c *MemoryClient) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	u := url.URL{
		Scheme: "http",
		Host:   "mock-s3.local",
		Path:   "/" + aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key),
	}
	q := u.Query()
	q.Set("X-Amz-Expires", strconv.Itoa(int(opts.Expires.Seconds())))
	u.RawQuery = q.Encode()

	return &v4.PresignedHTTPRequest{
		URL:          u.String(),
		Method:       http.MethodGet,
		SignedHeader: make(http.Header),
	}, nil
}

func newMemoryObject(data []byte, contentType string) *memoryObject {
	return &memoryObject{
		data:         data,
		contentType:  contentType,
		etag:         etagOf(data),
		lastModified: time.Now().UTC(),
	}
}

func etagOf(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func noSuchBucket(bucket string) error {
	return &types.NoSuchBucket{Message: aws.String(fmt.Sprintf("The specified bucket does not exist: %s", bucket))}
}
