package apigw

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// maxJSONBody - ограничение на размер JSON тела запроса
const maxJSONBody = 1 << 20

// Params читает параметры запроса из query string и тела формы
// (application/x-www-form-urlencoded или multipart/form-data)
type Params struct {
	r *http.Request
}

// NewParams создает читатель параметров для запроса
func NewParams(r *http.Request) *Params {
	return &Params{r: r}
}

// Optional возвращает значение параметра или пустую строку
func (p *Params) Optional(name string) string {
	return p.r.FormValue(name)
}

// Required возвращает значение параметра. Пустое значение считается отсутствующим.
func (p *Params) Required(name string) (string, error) {
	value := p.r.FormValue(name)
	if value == "" {
		return "", fmt.Errorf("%w '%s'", ErrMissingParameter, name)
	}
	return value, nil
}

// Int32 возвращает целочисленный параметр или def, если параметр не задан
func (p *Params) Int32(name string, def int32) (int32, error) {
	raw := strings.TrimSpace(p.r.FormValue(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w '%s': %q is not a valid integer", ErrInvalidParameter, name, raw)
	}
	return int32(v), nil
}

// Int64 возвращает целочисленный параметр или def, если параметр не задан
func (p *Params) Int64(name string, def int64) (int64, error) {
	raw := strings.TrimSpace(p.r.FormValue(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w '%s': %q is not a valid integer", ErrInvalidParameter, name, raw)
	}
	return v, nil
}

// DecodeJSON разбирает JSON тело запроса в v
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("%w: empty body", ErrInvalidBody)
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if len(data) > maxJSONBody {
		return fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidBody, maxJSONBody)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("%w: empty body", ErrInvalidBody)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}

// RequireFields проверяет, что все перечисленные поля JSON тела заданы.
// fields - пары "имя поля" -> значение.
func RequireFields(fields ...[2]string) error {
	for _, f := range fields {
		if f[1] == "" {
			return fmt.Errorf("%w '%s'", ErrMissingParameter, f[0])
		}
	}
	return nil
}
