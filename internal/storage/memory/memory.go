// memory - хранилище токена в памяти процесса. Подходит для тестов и
// окружений, где переживать перезапуск не требуется.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/pribylovaa/go-library-client/internal/storage"
)

// Storage реализует storage.TokenStore поверх одной защищённой мьютексом строки.
type Storage struct {
	mu     sync.RWMutex
	token  string
	ok     bool
	closed bool
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{}
}

// NewWithToken создаёт хранилище с заранее положенным токеном.
func NewWithToken(token string) *Storage {
	return &Storage{token: token, ok: true}
}

func (s *Storage) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	s.token, s.ok = token, true
	return nil
}

func (s *Storage) Load(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", storage.ErrClosed
	}
	// Пустое значение равносильно отсутствию, как и в остальных драйверах.
	if !s.ok || strings.TrimSpace(s.token) == "" {
		return "", storage.ErrNotFound
	}

	return s.token, nil
}

func (s *Storage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	s.token, s.ok = "", false
	return nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return nil
}
