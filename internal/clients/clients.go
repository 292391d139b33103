// clients - HTTP-клиент бэкенда библиотеки. Любой запрос проходит цепочку
// logging -> metadata (bearer из хранилища) -> unauthorized (сброс сессии на 401),
// а любой неуспех возвращается вызывающему как *apierrors.Error.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pribylovaa/go-library-client/internal/clients/interceptors"
	apierrors "github.com/pribylovaa/go-library-client/internal/errors"
	"github.com/pribylovaa/go-library-client/internal/models"
	"github.com/pribylovaa/go-library-client/internal/pkg/redact"
)

// DefaultTimeout - таймаут запроса, если в Options не задан иной.
const DefaultTimeout = 15 * time.Second

// ErrEmptyToken - бэкенд ответил на логин без токена.
var ErrEmptyToken = errors.New("empty auth token")

// Options - параметры клиента.
type Options struct {
	BaseURL   string
	UserAgent string
	// Timeout применяется, если у контекста запроса нет дедлайна.
	// Отрицательное значение отключает таймаут.
	Timeout time.Duration
	// Tokens - источник bearer-токена; читается на каждый запрос.
	Tokens interceptors.TokenSource
	// OnUnauthorized вызывается на каждый ответ 401.
	OnUnauthorized func(ctx context.Context)
	Logger         *slog.Logger
	// Transport - нижний транспорт (по умолчанию http.DefaultTransport).
	Transport http.RoundTripper
}

// Client выполняет JSON-запросы к бэкенду.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	log     *slog.Logger
}

// New собирает клиент и цепочку транспорта.
func New(opts Options) (*Client, error) {
	const op = "clients.New"

	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("%s: empty base url", op)
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse base url: %w", op, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%s: unsupported scheme %q", op, base.Scheme)
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	// Цепочка транспорта: logging -> metadata -> unauthorized.
	rt := interceptors.Chain(opts.Transport,
		interceptors.WithLogging(log),
		interceptors.WithMetadata(opts.Tokens, opts.UserAgent),
		interceptors.WithUnauthorized(opts.OnUnauthorized),
	)

	c := &Client{
		baseURL: base,
		timeout: timeout,
		log:     log,
	}
	c.http = &http.Client{Transport: rt, CheckRedirect: c.checkRedirect}

	return c, nil
}

// maxRedirects - предел цепочки перенаправлений одного запроса.
const maxRedirects = 10

// checkRedirect следует только перенаправлениям в пределах origin бэкенда:
// metadata-транспорт добавляет bearer к каждому запросу, в том числе к
// повторным. Перенаправление на чужой origin не выполняется, вызывающий
// получает сам 3xx-ответ.
func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if req.URL.Scheme != c.baseURL.Scheme || req.URL.Host != c.baseURL.Host {
		c.log.Warn("redirect_blocked",
			slog.String("from_host", c.baseURL.Host),
			slog.String("to_host", req.URL.Host),
		)
		return http.ErrUseLastResponse
	}
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}

	return nil
}

// Do выполняет запрос method path с телом in (JSON, если не nil) и
// декодирует успешный ответ в out (если не nil).
//
// Ошибки всегда *apierrors.Error:
//   - не-2xx ответ (включая 3xx на чужой origin): Status, Code по статусу,
//     Message от бэкенда или общий;
//   - ответа не было: Status 0, Code unavailable/deadline_exceeded/canceled.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	if c.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
	}

	target, err := c.resolve(path)
	if err != nil {
		return apierrors.Internal(0, err)
	}

	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return apierrors.Internal(0, fmt.Errorf("encode request: %w", err))
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return apierrors.Internal(0, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apierrors.FromTransport(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierrors.FromResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return apierrors.Internal(resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}

	return nil
}

// Get - Do с методом GET и без тела.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Login обменивает учётные данные на токен (POST /auth/login).
// Токен не сохраняется: это делает вызывающий через session.SetAuthData.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp models.LoginResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/login", models.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		c.log.Info("login_failed", slog.String("email", redact.Email(email)), slog.String("err", err.Error()))
		return "", err
	}

	if strings.TrimSpace(resp.Token) == "" {
		return "", apierrors.Internal(http.StatusOK, ErrEmptyToken)
	}

	c.log.Info("login_succeeded", slog.String("email", redact.Email(email)))

	return resp.Token, nil
}

// Register создаёт учётную запись читателя (POST /auth/register).
func (c *Client) Register(ctx context.Context, in models.RegisterRequest) (models.RegisterResponse, error) {
	var resp models.RegisterResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/register", in, &resp); err != nil {
		return models.RegisterResponse{}, err
	}

	c.log.Info("user_registered", slog.String("user_id", resp.ID), slog.String("email", redact.Email(resp.Email)))

	return resp, nil
}

// Close закрывает простаивающие соединения.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// resolve добавляет path к базовому URL, сохраняя префикс пути базы.
// Абсолютные URL не принимаются: запрос с токеном уходит только на бэкенд.
func (c *Client) resolve(p string) (*url.URL, error) {
	ref, err := url.Parse(p)
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, fmt.Errorf("absolute url not allowed: %s", p)
	}

	u := c.baseURL.JoinPath(ref.Path)
	u.RawQuery = ref.RawQuery

	return u, nil
}
