package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"awsgateway/apigw"
	"awsgateway/logger"
	"awsgateway/storage"
)

var s3log = logger.Named("handlers.s3")

const s3Prefix = "/aws/s3"

// Срок действия pre-signed URL, в секундах. Максимум - предел SigV4 (7 дней).
const (
	defaultExpirationSeconds = 300
	maxExpirationSeconds     = 7 * 24 * 60 * 60
)

// S3Handler обслуживает эндпоинты /aws/s3/*
type S3Handler struct {
	service        S3Service
	responseWriter *apigw.ResponseWriter
	maxMemory      int64
}

// NewS3Handler создает обработчик. maxUploadMemory - сколько байт multipart-формы держать в памяти.
func NewS3Handler(service S3Service, maxUploadMemory int64) *S3Handler {
	if maxUploadMemory <= 0 {
		maxUploadMemory = 32 << 20
	}
	return &S3Handler{
		service:        service,
		responseWriter: apigw.NewResponseWriter(),
		maxMemory:      maxUploadMemory,
	}
}

// RegisterRoutes реализует apigw.Registrar
func (h *S3Handler) RegisterRoutes(r *mux.Router) {
	// Маршруты регистрируются на корневом роутере: у подроутеров mux
	// нет собственного MethodNotAllowedHandler, и неверный метод дал бы 404
	r.HandleFunc(s3Prefix+"/buckets", h.listBuckets).Methods(http.MethodGet)
	r.HandleFunc(s3Prefix+"/objects", h.listObjects).Methods(http.MethodGet)
	r.HandleFunc(s3Prefix+"/upload", h.upload).Methods(http.MethodPost)
	r.HandleFunc(s3Prefix+"/delete/object", h.deleteObject).Methods(http.MethodDelete)
	r.HandleFunc(s3Prefix+"/download", h.download).Methods(http.MethodGet)
	r.HandleFunc(s3Prefix+"/copy", h.copyObject).Methods(http.MethodPost)
	r.HandleFunc(s3Prefix+"/presignedUrl", h.presignedURL).Methods(http.MethodGet)
}

func (h *S3Handler) listBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.service.ListBuckets(r.Context())
	if err != nil {
		s3log.Error("Error listing buckets: %v", err)
		h.responseWriter.WriteError(w, apigw.InternalError("Error listing buckets", err))
		return
	}

	s3log.Info("Retrieved %d buckets", len(buckets))
	h.responseWriter.WriteJSON(w, http.StatusOK, buckets)
}

func (h *S3Handler) listObjects(w http.ResponseWriter, r *http.Request) {
	bucket, err := apigw.NewParams(r).Required("bucketName")
	if err != nil {
		h.responseWriter.WriteError(w, err)
		return
	}

	objects, err := h.service.ListObjects(r.Context(), bucket)
	if err != nil {
		s3log.Error("Error listing objects in bucket %s: %v", bucket, err)
		h.responseWriter.WriteError(w, apigw.InternalError("Error listing objects", err))
		return
	}

	s3log.Info("Retrieved %d objects from bucket '%s'", len(objects), bucket)
	h.responseWriter.WriteJSON(w, http.StatusOK, objects)
}

func (h *S3Handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		h.responseWriter.WriteError(w, fmt.Errorf("%w: expected multipart form: %v", apigw.ErrInvalidBody, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	params := apigw.NewParams(r)
	bucket, err := params.Required("bucketName")
	if err != nil {
		h.responseWriter.WriteError(w, err)
		return
	}
	key, err := params.Required("key")
	if err != nil {
		h.responseWriter.WriteError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.responseWriter.WriteError(w, fmt.Errorf("%w 'file'", apigw.ErrMissingParameter))
		return
	}
	defer file.Close()

	err = h.service.Upload(r.Context(), storage.UploadInput{
		Bucket:      bucket,
		Key:         key,
		Body:        file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		s3log.Error("Error uploading file '%s' to bucket %s: %v", key, bucket, err)
		h.responseWriter.WriteError(w, apigw.InternalError("Error uploading file", err))
		return
	}

	s3log.Info("File '%s' uploaded successfully to bucket '%s'", key, bucket)
	h.responseWriter.WriteText(w, http.StatusOK, "File uploaded successfully.")
}

func (h *S3Handler) deleteObject(w http.ResponseWriter, r *http.Request) {
	bucket, key, ok := h.bucketAndKey(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), bucket, key); err != nil {
		s3log.Error("Error deleting object '%s' from bucket %s: %v", key, bucket, err)
		h.responseWriter.WriteError(w, apigw.InternalError("Error deleting file", err))
		return
	}

	s3log.Info("Object '%s' deleted successfully from bucket '%s'", key, bucket)
	h.responseWriter.WriteText(w, http.StatusOK, "Object deleted successfully.")
}

func (h *S3Handler) download(w http.ResponseWriter, r *http.Request) {
	bucket, key, ok := h.bucketAndKey(w, r)
	if !ok {
		return
	}

	obj, err := h.service.Download(r.Context(), bucket, key)
	if err != nil {
		s3log.Error("Error downloading file '%s' from bucket %s: %v", key, bucket, err)
		h.responseWriter.WriteError(w, apigw.InternalError("Error downloading file", err))
		return
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/octet-stream")
	headers.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", key))
	if obj.ETag != "" {
		headers.Set("ETag", obj.ETag)
	}
	if !obj.LastModified.IsZero() {
		headers.Set("Last-Modified", obj.LastModified.UTC().Format(http.TimeFormat))
	}

	if err := h.responseWriter.WriteStream(w, headers, obj.Body, obj.ContentLength); err != nil {
		s3log.Error("Download of '%s' from bucket %s interrupted: %v", key, bucket, err)
		return
	}
	s3log.Info("File '%s' from bucket '%s' downloaded successfully", key, bucket)
}

// copyRequest - тело запроса POST /aws/s3/copy
type copyRequest struct {
	SourceBucket      string `json:"sourceBucket"`
	SourceKey         string `json:"sourceKey"`
	DestinationBucket string `json:"destinationBucket"`
	DestinationKey    string `json:"destinationKey"`
}

func (h *S3Handler) copyObject(w http.ResponseWriter, r *http.Request) {
	var req copyRequest
	if err := apigw.DecodeJSON(r, &req); err != nil {
		h.responseWriter.WriteError(w, err)
		return
	}
	if err := apigw.RequireFields(
		[2]string{"sourceBucket", req.SourceBucket},
		[2]string{"sourceKey", req.SourceKey},
		[2]string{"destinationBucket", req.DestinationBucket},
		[2]string{"destinationKey", req.DestinationKey},
	); err != nil {
		h.responseWriter.WriteError(w, err)
		return
	}

	err := h.service.Copy(r.Context(), storage.CopyInput{
		SourceBucket:      req.SourceBucket,
		SourceKey:         req.SourceKey,
		DestinationBucket: req.DestinationBucket,
		DestinationKey:    req.DestinationKey,
	})
	if err != nil {
		s3log.Error("Error copying object: %v", err)
		h.responseWriter.WriteError(w, apigw.InternalError("Error copying object", err))
		return
	}

	s3log.Info("Object copied from %s/%s to %s/%s successfully",
		req.SourceBucket, req.SourceKey, req.DestinationBucket, req.DestinationKey)
	h.responseWriter.WriteText(w, http.StatusOK, "Object copied successfully.")
}

func (h *S3Handler) presignedURL(w http.ResponseWriter, r *http.Request) {
	bucket, key, ok := h.bucketAndKey(w, r)
	if !ok {
		return
	}

	seconds, err := apigw.NewParams(r).Int64("expirationSeconds", defaultExpirationSeconds)
	if err != nil {
		h.responseWriter.WriteError(w, err)
		return
	}
	if seconds <= 0 || seconds > maxExpirationSeconds {
		h.responseWriter.WriteError(w, fmt.Errorf("%w 'expirationSeconds': must be between 1 and %d",
			apigw.ErrInvalidParameter, maxExpirationSeconds))
		return
	}

	url, err := h.service.PresignGet(r.Context(), bucket, key, time.Duration(seconds)*time.Second)
	if err != nil {
		s3log.Error("Error generating pre-signed URL for object '%s' in bucket %s: %v", key, bucket, err)
		h.responseWriter.WriteError(w, apigw.InternalError("Error generating pre-signed URL", err))
		return
	}

	s3log.Info("Pre-signed URL generated successfully for object '%s' in bucket '%s'", key, bucket)
	h.responseWriter.WriteText(w, http.StatusOK, url)
}

// bucketAndKey читает обязательные параметры bucketName и key.
// При ошибке ответ уже записан.
func (h *S3Handler) bucketAndKey(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	params := apigw.NewParams(r)
	bucket, err := params.Required("bucketName")
	if err != nil {
		h.responseWriter.WriteError(w, err)
		return "", "", false
	}
	key, err := params.Required("key")
	if err != nil {
		h.responseWriter.WriteError(w, err)
		return "", "", false
	}
	return bucket, key, true
}
