// file - файловое хранилище токена: аналог localStorage, переживающий
// перезапуск процесса. Один ключ - один файл в каталоге приложения.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pribylovaa/go-library-client/internal/storage"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// Storage реализует storage.TokenStore поверх одного файла.
// Запись атомарна: временный файл + rename в том же каталоге.
type Storage struct {
	mu   sync.Mutex
	dir  string
	path string
}

// New создаёт файловое хранилище в каталоге dir под ключом key.
// Каталог создаётся лениво при первой записи.
func New(dir, key string) (*Storage, error) {
	const op = "storage.file.New"

	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%s: empty dir", op)
	}
	if err := storage.ValidateKey(key); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dir = filepath.Clean(dir)
	return &Storage{dir: dir, path: filepath.Join(dir, key)}, nil
}

// Path возвращает путь к файлу токена.
func (s *Storage) Path() string { return s.path }

func (s *Storage) Save(ctx context.Context, token string) error {
	const op = "storage.file.Save"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmpName := tmp.Name()
	// При любой ошибке ниже временный файл не должен остаться на диске.
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tmp.WriteString(token); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Load(ctx context.Context) (string, error) {
	const op = "storage.file.Load"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", storage.ErrNotFound
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", storage.ErrNotFound
	}

	return token, nil
}

func (s *Storage) Clear(ctx context.Context) error {
	const op = "storage.file.Clear"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close - no-op: файл не держится открытым между операциями.
func (s *Storage) Close() error { return nil }
