package session

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-library-client/internal/events"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mintToken выпускает HS256-токен с произвольными claims. Секрет клиенту
// неизвестен и не нужен: подпись при разборе не проверяется.
func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return signed
}

func validClaims(id string, roles ...string) jwt.MapClaims {
	now := time.Now().UTC()
	return jwt.MapClaims{
		"id":    id,
		"sub":   "reader@example.com",
		"roles": roles,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

// rawToken собирает JWT из произвольного JSON payload без подписи.
func rawToken(payload string) string {
	enc := base64.RawURLEncoding
	header := enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	return header + "." + enc.EncodeToString([]byte(payload)) + ".c2ln"
}

// recorder считает события сессии.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func newRecorder(d events.Dispatcher) *recorder {
	r := &recorder{}
	h := func(_ context.Context, e events.Event) error {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
		return nil
	}
	d.Subscribe(events.SessionCleared, h)
	d.Subscribe(events.SessionEstablished, h)
	return r
}

func (r *recorder) count(tp events.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.events {
		if e.Type == tp {
			n++
		}
	}
	return n
}

func (r *recorder) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}
