// sqlite - хранилище токена во встроенной базе SQLite (pure Go, без CGO).
// Удобно, когда клиент уже держит локальную БД состояния.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pribylovaa/go-library-client/internal/storage"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Storage реализует storage.TokenStore поверх таблицы kv.
type Storage struct {
	db  *sql.DB
	key string
}

// New открывает (или создаёт) файл базы по пути path и применяет схему.
func New(ctx context.Context, path, key string) (*Storage, error) {
	const op = "storage.sqlite.New"

	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%s: empty path", op)
	}
	if err := storage.ValidateKey(key); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", op, err)
	}

	// SQLite поддерживает одного писателя.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: schema: %w", op, err)
	}

	return &Storage{db: db, key: key}, nil
}

func (s *Storage) Save(ctx context.Context, token string) error {
	const op = "storage.sqlite.Save"

	const q = `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, q, s.key, token, time.Now().UTC().Unix()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Load(ctx context.Context) (string, error) {
	const op = "storage.sqlite.Load"

	var token string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}
	if token == "" {
		return "", storage.ErrNotFound
	}

	return token, nil
}

func (s *Storage) Clear(ctx context.Context) error {
	const op = "storage.sqlite.Clear"

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, s.key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Close() error { return s.db.Close() }

// dsn собирает URI базы: путь экранируется, чтобы '?', '#' и '%' в имени
// файла не смешивались с параметрами.
func dsn(path string) string {
	u := url.URL{
		Scheme:   "file",
		OmitHost: true,
		Path:     path,
		RawQuery: "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
	}

	return u.String()
}
