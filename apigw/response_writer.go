package apigw

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

// ResponseWriter отвечает за формирование HTTP ответов
type ResponseWriter struct{}

// NewResponseWriter создает новый экземпляр writer'а ответов
func NewResponseWriter() *ResponseWriter {
	return &ResponseWriter{}
}

// WriteJSON записывает v как JSON
func (rw *ResponseWriter) WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error("Failed to marshal JSON response: %v", err)
		return rw.WriteText(w, http.StatusInternalServerError, "failed to encode response")
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}

// WriteText записывает текстовый ответ
func (rw *ResponseWriter) WriteText(w http.ResponseWriter, status int, text string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(text)))
	w.WriteHeader(status)
	_, err := io.WriteString(w, text)
	return err
}

// WriteStream копирует body в ответ и закрывает его.
// contentLength < 0 означает, что длина неизвестна.
func (rw *ResponseWriter) WriteStream(w http.ResponseWriter, headers http.Header, body io.ReadCloser, contentLength int64) error {
	defer body.Close()

	for key, values := range headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	if contentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(contentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, body)
	if err != nil {
		// Заголовки уже отправлены, остается только оборвать ответ
		log.Error("Failed to stream response body after %d bytes: %v", n, err)
	}
	return err
}

// WriteError записывает ошибку как текст; статус определяется по типу ошибки
func (rw *ResponseWriter) WriteError(w http.ResponseWriter, err error) error {
	status := StatusFor(err)
	log.Debug("Writing error response: status=%d, error=%v", status, err)
	return rw.WriteText(w, status, err.Error())
}
