// storage задаёт контракт долговременного хранения bearer-токена.
//
// Хранилище держит не более одного токена под фиксированным ключом и ничего
// не знает о его формате: валидация - ответственность пакета session.
package storage

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks github.com/pribylovaa/go-library-client/internal/storage TokenStore

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound - токен в хранилище отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrInvalidKey - ключ хранилища пустой или содержит недопустимые символы.
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrClosed - хранилище уже закрыто.
	ErrClosed = errors.New("storage closed")
)

// DefaultKey - ключ, под которым хранится токен, если в конфигурации не задан иной.
const DefaultKey = "token"

// TokenStore - синхронное key-value хранилище единственного токена.
type TokenStore interface {
	// Save перезаписывает текущий токен (last-write-wins).
	Save(ctx context.Context, token string) error
	// Load возвращает текущий токен или ErrNotFound.
	Load(ctx context.Context) (string, error)
	// Clear удаляет токен. Повторный вызов на пустом хранилище - не ошибка.
	Clear(ctx context.Context) error
	// Close освобождает ресурсы драйвера.
	Close() error
}

// ValidateKey проверяет, что ключ пригоден для всех драйверов
// (в том числе как имя файла).
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return ErrInvalidKey
	}

	return nil
}
