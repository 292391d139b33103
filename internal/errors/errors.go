// errors приводит любой неуспешный исход HTTP-запроса к бэкенду к одной
// форме *Error:
//   - HTTP-статус и короткий стабильный Code для машинной обработки;
//   - Message: сообщение бэкенда, если оно есть, иначе GenericMessage.
//
// Сырые транспортные ошибки наружу не отдаются: они доступны только через
// Unwrap (для диагностики и логов).
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
)

// GenericMessage - сообщение, когда бэкенд не объяснил причину.
const GenericMessage = "An unexpected error occurred."

// maxBody ограничивает чтение тела ошибки.
const maxBody = 64 << 10

// Error - нормализованная ошибка запроса.
// Status == 0 означает, что ответа не было (сеть, таймаут, отмена).
type Error struct {
	Status    int
	Code      string
	Message   string
	RequestID string

	err error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.err }

// body - допустимые формы тела ошибки: {"message": "..."} или
// {"error": {"code": "...", "message": "..."}}.
type body struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

type nested struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FromResponse строит *Error из неуспешного ответа. Тело читается, но не
// закрывается: это делает вызывающий.
func FromResponse(resp *http.Response) *Error {
	code := codeFromStatus(resp.StatusCode)
	out := &Error{
		Status:    resp.StatusCode,
		Code:      code,
		Message:   GenericMessage,
		RequestID: resp.Header.Get("X-Request-Id"),
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil || len(raw) == 0 {
		return out
	}

	var b body
	if json.Unmarshal(raw, &b) != nil {
		return out
	}
	if msg := strings.TrimSpace(b.Message); msg != "" {
		out.Message = msg
		return out
	}

	var n nested
	if len(b.Error) > 0 && json.Unmarshal(b.Error, &n) == nil {
		if msg := strings.TrimSpace(n.Message); msg != "" {
			out.Message = msg
		}
		if n.Code != "" {
			out.Code = n.Code
		}
	}

	return out
}

// FromTransport оборачивает ошибку, после которой ответа не было.
func FromTransport(err error) *Error {
	code := "unavailable"
	switch {
	case stderrors.Is(err, context.Canceled):
		code = "canceled"
	case stderrors.Is(err, context.DeadlineExceeded):
		code = "deadline_exceeded"
	}

	return &Error{Code: code, Message: GenericMessage, err: err}
}

// Internal - ошибка на стороне клиента (кодирование запроса, разбор ответа).
func Internal(status int, err error) *Error {
	return &Error{Status: status, Code: "internal", Message: GenericMessage, err: err}
}

// IsUnauthorized сообщает, что бэкенд отверг учётные данные.
func IsUnauthorized(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Status == http.StatusUnauthorized
}

// codeFromStatus - маппинг HTTP-статуса в стабильный код:
//   - 400, 422 -> invalid_argument
//   - 401 -> unauthenticated
//   - 403 -> permission_denied
//   - 404 -> not_found
//   - 409 -> already_exists
//   - 412 -> failed_precondition
//   - 429 -> resource_exhausted
//   - 501 -> unimplemented
//   - 502, 503 -> unavailable
//   - 504 -> deadline_exceeded
//   - прочее -> internal
func codeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "invalid_argument"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusForbidden:
		return "permission_denied"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "already_exists"
	case http.StatusPreconditionFailed:
		return "failed_precondition"
	case http.StatusTooManyRequests:
		return "resource_exhausted"
	case http.StatusNotImplemented:
		return "unimplemented"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "unavailable"
	case http.StatusGatewayTimeout:
		return "deadline_exceeded"
	default:
		return "internal"
	}
}
