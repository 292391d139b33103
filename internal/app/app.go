// app - корень композиции клиента: хранилище -> сессия -> роутер -> HTTP-клиент.
// Хранилище читается до первой навигации, поэтому guard с самого начала
// видит актуальную сессию.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pribylovaa/go-library-client/internal/clients"
	"github.com/pribylovaa/go-library-client/internal/config"
	"github.com/pribylovaa/go-library-client/internal/events"
	"github.com/pribylovaa/go-library-client/internal/models"
	"github.com/pribylovaa/go-library-client/internal/navigation"
	"github.com/pribylovaa/go-library-client/internal/session"
	"github.com/pribylovaa/go-library-client/internal/storage"
	"github.com/pribylovaa/go-library-client/internal/storage/file"
	"github.com/pribylovaa/go-library-client/internal/storage/memory"
	"github.com/pribylovaa/go-library-client/internal/storage/redis"
	"github.com/pribylovaa/go-library-client/internal/storage/sqlite"
)

// App связывает компоненты клиента.
type App struct {
	Store   storage.TokenStore
	Session *session.Manager
	Router  *navigation.Router
	Client  *clients.Client

	log *slog.Logger
}

// Options - необязательные точки подмены зависимостей.
type Options struct {
	// Store подменяет хранилище из конфигурации (тесты).
	Store storage.TokenStore
	// Routes подменяет DefaultRoutes.
	Routes []navigation.RouteRecord
}

// New собирает приложение. При ошибке уже открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, opts Options) (*App, error) {
	const op = "app.New"

	if log == nil {
		log = slog.Default()
	}

	store := opts.Store
	if store == nil {
		var err error
		store, err = openStore(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	log.Debug("token_store_opened",
		slog.String("driver", cfg.Storage.Driver),
		slog.String("location", storeLocation(store)),
	)

	d := events.NewDispatcher()
	sess, err := session.New(ctx, store, session.Options{Logger: log, Events: d})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	records := opts.Routes
	if records == nil {
		records = navigation.DefaultRoutes()
	}
	table, err := navigation.NewTable(records)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := navigation.NewRouter(table, sess, log)
	router.Bind(sess)

	client, err := clients.New(clients.Options{
		BaseURL:        cfg.API.BaseURL,
		UserAgent:      cfg.API.UserAgent,
		Timeout:        cfg.Timeouts.Request,
		Tokens:         store,
		OnUnauthorized: sess.OnUnauthorized,
		Logger:         log,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{Store: store, Session: sess, Router: router, Client: client, log: log}, nil
}

// Login обменивает учётные данные на токен и устанавливает сессию.
// Переход на главную выполняет роутер по событию SessionEstablished.
func (a *App) Login(ctx context.Context, email, password string) (navigation.Location, error) {
	const op = "app.Login"

	token, err := a.Client.Login(ctx, email, password)
	if err != nil {
		return navigation.Location{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.Session.SetAuthData(ctx, token); err != nil {
		return navigation.Location{}, fmt.Errorf("%s: %w", op, err)
	}

	return a.Router.Current(), nil
}

// Register создаёт учётную запись. Сессия не устанавливается: бэкенд
// возвращает только профиль, войти нужно отдельно.
func (a *App) Register(ctx context.Context, in models.RegisterRequest) (models.RegisterResponse, error) {
	const op = "app.Register"

	out, err := a.Client.Register(ctx, in)
	if err != nil {
		return models.RegisterResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Logout сбрасывает сессию; роутер сам уходит на /login.
func (a *App) Logout(ctx context.Context) error {
	return a.Session.ClearAuthData(ctx)
}

// Open выполняет навигацию с проверкой guard.
func (a *App) Open(ctx context.Context, path string) (navigation.Location, error) {
	return a.Router.Push(ctx, path)
}

// Get выполняет авторизованный GET и возвращает сырое тело ответа.
func (a *App) Get(ctx context.Context, path string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := a.Client.Get(ctx, path, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// Close освобождает соединения и хранилище.
func (a *App) Close() error {
	a.Client.Close()
	return a.Store.Close()
}

// openStore выбирает драйвер хранилища токена по конфигурации.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.TokenStore, error) {
	const op = "app.openStore"

	switch cfg.Driver {
	case config.DriverFile, "":
		dir, err := cfg.TokenDir()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return file.New(dir, cfg.Key)

	case config.DriverSQLite:
		p, err := cfg.DatabasePath()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return nil, fmt.Errorf("%s: mkdir: %w", op, err)
		}
		return sqlite.New(ctx, p, cfg.Key)

	case config.DriverRedis:
		return redis.New(ctx, cfg.RedisURL, cfg.RedisPrefix, cfg.Key)

	case config.DriverMemory:
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("%s: unknown storage driver %q", op, cfg.Driver)
	}
}

// storeLocation - где лежит токен, для диагностики.
func storeLocation(st storage.TokenStore) string {
	switch s := st.(type) {
	case *file.Storage:
		return s.Path()
	case *redis.Storage:
		return "redis key " + s.Key()
	case *memory.Storage:
		return "memory"
	default:
		return fmt.Sprintf("%T", st)
	}
}
