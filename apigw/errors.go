package apigw

import (
	"errors"
	"net/http"
)

// Ошибки разбора параметров запроса. Все они отображаются в 400 Bad Request.
var (
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidBody      = errors.New("invalid request body")
)

// HTTPError - ошибка с явно заданным HTTP статусом и текстом ответа
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError создает ошибку с заданным статусом
func NewHTTPError(status int, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Message: message, Err: err}
}

// InternalError оборачивает ошибку вызова AWS в ответ 500 с текстом "<prefix>: <err>"
func InternalError(prefix string, err error) *HTTPError {
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Message: prefix + ": " + err.Error(),
		Err:     err,
	}
}

// StatusFor возвращает HTTP статус для ошибки
func StatusFor(err error) int {
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Status
	case errors.Is(err, ErrMissingParameter),
		errors.Is(err, ErrInvalidParameter),
		errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
