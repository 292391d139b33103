// redis - хранилище токена в Redis. Применяется, когда несколько экземпляров
// клиента (например, воркеры одного пользователя) должны видеть общий токен.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-library-client/internal/storage"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix - префикс ключей, если не задан иной.
const DefaultPrefix = "library:session:"

// Storage реализует storage.TokenStore поверх одного строкового ключа Redis.
type Storage struct {
	rdb *redis.Client
	key string
}

// New создаёт клиент Redis из URL (redis://:pass@host:6379/0) и проверяет
// соединение (fail-fast на старте).
func New(ctx context.Context, redisURL, prefix, key string) (*Storage, error) {
	const op = "storage.redis.New"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	st, err := NewFromClient(rdb, prefix, key)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return st, nil
}

// NewFromClient оборачивает готовый клиент. Если prefix пустой - DefaultPrefix.
func NewFromClient(rdb *redis.Client, prefix, key string) (*Storage, error) {
	if err := storage.ValidateKey(key); err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Storage{rdb: rdb, key: prefix + key}, nil
}

// Key возвращает полный ключ Redis.
func (s *Storage) Key() string { return s.key }

// Save пишет токен без TTL: срок жизни токена контролирует бэкенд.
func (s *Storage) Save(ctx context.Context, token string) error {
	const op = "storage.redis.Save"

	if err := s.rdb.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Load(ctx context.Context) (string, error) {
	const op = "storage.redis.Load"

	token, err := s.rdb.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", storage.ErrNotFound
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}
	if token == "" {
		return "", storage.ErrNotFound
	}

	return token, nil
}

// Clear удаляет ключ; DEL отсутствующего ключа возвращает 0 и ошибкой не считается.
func (s *Storage) Clear(ctx context.Context) error {
	const op = "storage.redis.Clear"

	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Close() error { return s.rdb.Close() }
