// session - единый источник истины о том, кто залогинен и с какими ролями.
//
// Manager выводит сессию из токена, лежащего в storage.TokenStore:
//   - при создании (New) читает хранилище; битый токен логируется и удаляется,
//     сессия остаётся разлогиненной;
//   - SetAuthData сохраняет токен после логина и заполняет сессию; ошибка
//     разбора токена здесь возвращается вызывающему;
//   - ClearAuthData - единственный путь сброса (и явный logout, и реакция на 401).
//
// Безопасность: подпись токена на клиенте НЕ проверяется, срок действия тоже.
// Роли из токена - удобство навигации, а не граница доверия: любая
// привилегированная операция повторно авторизуется бэкендом.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/pribylovaa/go-library-client/internal/events"
	"github.com/pribylovaa/go-library-client/internal/models"
	"github.com/pribylovaa/go-library-client/internal/storage"
)

// Options - необязательные зависимости Manager.
type Options struct {
	Logger *slog.Logger
	// Events получает SessionEstablished/SessionCleared. Может быть nil.
	Events events.Dispatcher
	// Now - источник времени (для тестов). По умолчанию time.Now.
	Now func() time.Time
}

// Manager хранит производную от токена сессию. Безопасен для конкурентного
// использования: HTTP-транспорт читает и сбрасывает сессию из разных горутин.
type Manager struct {
	store  storage.TokenStore
	events events.Dispatcher
	log    *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	claims *models.Claims
	userID string
	roles  []string
}

// New создаёт Manager и выполняет инициализацию из хранилища.
// Ошибка возвращается только при сбое самого хранилища; битый токен
// считается восстановимой ситуацией.
func New(ctx context.Context, store storage.TokenStore, opts Options) (*Manager, error) {
	const op = "session.New"

	if store == nil {
		return nil, fmt.Errorf("%s: nil token store", op)
	}

	m := &Manager{
		store:  store,
		events: opts.Events,
		log:    opts.Logger,
		now:    opts.Now,
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}

	token, err := store.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		m.log.Debug("session_init_empty")
		return m, nil
	case err != nil:
		return nil, fmt.Errorf("%s: load token: %w", op, err)
	}

	claims, err := Decode(token)
	if err != nil {
		m.log.Warn("stored_token_invalid",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		if cerr := store.Clear(ctx); cerr != nil {
			m.log.Error("stored_token_evict_failed",
				slog.String("op", op),
				slog.String("err", cerr.Error()),
			)
		}
		return m, nil
	}

	m.apply(claims)
	m.log.Info("session_restored",
		slog.String("user_id", claims.Identifier()),
		slog.Any("roles", claims.Roles),
	)

	return m, nil
}

// SetAuthData сохраняет токен, выданный после логина/регистрации, и заполняет
// сессию. Если токен не разбирается, он удаляется из хранилища, а ошибка
// (ErrMalformedToken) возвращается: это нарушение контракта бэкенд/клиент.
func (m *Manager) SetAuthData(ctx context.Context, token string) error {
	const op = "session.SetAuthData"

	if err := m.store.Save(ctx, token); err != nil {
		return fmt.Errorf("%s: save token: %w", op, err)
	}

	claims, err := Decode(token)
	if err != nil {
		if cerr := m.store.Clear(ctx); cerr != nil {
			m.log.Error("login_token_evict_failed",
				slog.String("op", op),
				slog.String("err", cerr.Error()),
			)
		}
		m.reset()
		return fmt.Errorf("%s: %w", op, err)
	}

	m.apply(claims)
	m.log.Info("session_established",
		slog.String("user_id", claims.Identifier()),
		slog.Any("roles", claims.Roles),
	)

	m.publish(ctx, events.Event{Type: events.SessionEstablished, UserID: claims.Identifier()})
	return nil
}

// ClearAuthData - явный logout. См. Teardown.
func (m *Manager) ClearAuthData(ctx context.Context) error {
	return m.Teardown(ctx, events.ReasonLogout)
}

// OnUnauthorized - хук для HTTP-транспорта: ответ 401 на любой запрос
// сбрасывает всю сессию.
func (m *Manager) OnUnauthorized(ctx context.Context) {
	if err := m.Teardown(ctx, events.ReasonUnauthorized); err != nil {
		m.log.Error("session_teardown_failed", slog.String("err", err.Error()))
	}
}

// Teardown очищает хранилище, обнуляет сессию и публикует SessionCleared.
// Идемпотентен: повторный вызов приводит к тому же состоянию и публикует
// ровно одно событие на вызов. Сессия в памяти обнуляется даже при ошибке
// хранилища; ошибка возвращается.
func (m *Manager) Teardown(ctx context.Context, reason events.Reason) error {
	const op = "session.Teardown"

	clearErr := m.store.Clear(ctx)

	m.mu.Lock()
	prevUser := m.userID
	m.claims, m.userID, m.roles = nil, "", nil
	m.mu.Unlock()

	m.log.Info("session_cleared",
		slog.String("reason", string(reason)),
		slog.String("user_id", prevUser),
	)

	m.publish(ctx, events.Event{Type: events.SessionCleared, UserID: prevUser, Reason: reason})

	if clearErr != nil {
		return fmt.Errorf("%s: clear token: %w", op, clearErr)
	}

	return nil
}

// UserID возвращает идентификатор пользователя, если сессия установлена.
func (m *Manager) UserID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.userID, m.userID != ""
}

// Roles возвращает копию набора ролей (пустой при отсутствии сессии).
func (m *Manager) Roles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.roles)
}

// HasRole - проверка членства роли в текущем наборе.
func (m *Manager) HasRole(role string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Contains(m.roles, role)
}

// HasAnyRole - true, если пересечение с текущим набором непусто.
func (m *Manager) HasAnyRole(roles ...string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.ContainsFunc(roles, func(r string) bool {
		return slices.Contains(m.roles, r)
	})
}

// IsAuthenticated - есть ли хотя бы одна роль.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.roles) > 0
}

// Snapshot возвращает согласованный снимок сессии.
func (m *Manager) Snapshot() models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return models.Session{UserID: m.userID, Roles: slices.Clone(m.roles)}
}

// ExpiresAt возвращает момент истечения токена из claims, если он указан.
func (m *Manager) ExpiresAt() (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.claims == nil || m.claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return m.claims.ExpiresAt.Time, true
}

// Expired сообщает, истёк ли токен по локальным часам. Используется только
// для отображения: сессию по-прежнему завершает лишь ответ 401 от бэкенда.
func (m *Manager) Expired() bool {
	exp, ok := m.ExpiresAt()
	return ok && !m.now().Before(exp)
}

// Subscribe - подписка на события сессии через подключённый диспетчер.
func (m *Manager) Subscribe(eventType events.EventType, handler events.Handler) {
	if m.events == nil {
		return
	}

	m.events.Subscribe(eventType, handler)
}

func (m *Manager) apply(c *models.Claims) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.claims = c
	m.userID = c.Identifier()
	m.roles = slices.Clone(c.Roles)
}

func (m *Manager) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.claims, m.userID, m.roles = nil, "", nil
}

func (m *Manager) publish(ctx context.Context, e events.Event) {
	if m.events == nil {
		return
	}

	if err := m.events.Publish(ctx, e); err != nil {
		m.log.Error("session_event_handler_failed",
			slog.String("event", string(e.Type)),
			slog.String("err", err.Error()),
		)
	}
}
