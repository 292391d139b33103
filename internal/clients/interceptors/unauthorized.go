package interceptors

import (
	"context"
	"net/http"
)

// WithUnauthorized вызывает hook ровно один раз на каждый ответ 401,
// независимо от эндпоинта. Ответ передаётся дальше без изменений.
// Запросы, оставшиеся в полёте после logout, могут вызвать hook повторно:
// сброс сессии идемпотентен.
func WithUnauthorized(hook func(ctx context.Context)) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if hook == nil {
			return next
		}

		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(r)
			if err == nil && resp.StatusCode == http.StatusUnauthorized {
				hook(r.Context())
			}

			return resp, err
		})
	}
}
