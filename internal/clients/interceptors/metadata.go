package interceptors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-library-client/internal/pkg/log"
	"github.com/pribylovaa/go-library-client/internal/storage"
)

// Заголовки исходящих запросов.
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-Id"
	HeaderUserAgent     = "User-Agent"
)

// TokenSource - откуда брать текущий токен. Реализуется storage.TokenStore.
type TokenSource interface {
	Load(ctx context.Context) (string, error)
}

// WithMetadata добавляет в исходящий запрос заголовки:
//   - Authorization: Bearer <token>, если токен есть в хранилище;
//   - X-Request-Id (сохраняет уже заданный, иначе генерирует uuid);
//   - User-Agent (если передан параметром).
//
// Токен читается из хранилища на каждый запрос, а не из сессии: запрос,
// отправленный сразу после логина, уже несёт новый токен. Ошибка чтения
// хранилища не прерывает запрос: он уходит без авторизации.
func WithMetadata(tokens TokenSource, userAgent string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			ctx := r.Context()
			r = r.Clone(ctx)

			if r.Header.Get(HeaderRequestID) == "" {
				r.Header.Set(HeaderRequestID, uuid.NewString())
			}
			if userAgent != "" {
				r.Header.Set(HeaderUserAgent, userAgent)
			}

			r.Header.Del(HeaderAuthorization)
			if tokens != nil {
				tok, err := tokens.Load(ctx)
				switch {
				case err == nil && tok != "":
					r.Header.Set(HeaderAuthorization, "Bearer "+tok)
				case err != nil && !errors.Is(err, storage.ErrNotFound):
					log.From(ctx).Warn("token_load_failed", slog.String("err", err.Error()))
				}
			}

			return next.RoundTrip(r)
		})
	}
}
