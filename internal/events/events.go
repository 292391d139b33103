// events - синхронная in-memory шина уведомлений о жизненном цикле сессии.
//
// Единственный издатель - session.Manager; подписчики (навигация, CLI)
// реагируют на установку и сброс сессии, не зная друг о друге. Так
// HTTP-слой, инициирующий сброс по 401, не зависит от роутера напрямую.
package events

import (
	"context"
	"errors"
	"sync"
	"time"
)

// EventType - тип события сессии.
type EventType string

const (
	// SessionEstablished - после успешного SetAuthData.
	SessionEstablished EventType = "session.established"
	// SessionCleared - после каждого ClearAuthData (в том числе повторного).
	SessionCleared EventType = "session.cleared"
)

// Reason - причина сброса сессии.
type Reason string

const (
	ReasonLogout       Reason = "logout"
	ReasonUnauthorized Reason = "unauthorized"
)

// Event - уведомление о смене сессии.
type Event struct {
	Type   EventType
	UserID string
	Reason Reason
	At     time.Time
}

// Handler обрабатывает опубликованное событие.
type Handler func(context.Context, Event) error

// Dispatcher позволяет публиковать события и подписываться на них.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler Handler)
}

type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]Handler
}

// NewDispatcher создаёт синхронный диспетчер.
func NewDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]Handler),
	}
}

// Publish синхронно вызывает обработчики в порядке подписки.
// Ошибка одного обработчика не прерывает остальных; все ошибки объединяются.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.listeners[event.Type]...)
	d.mu.RUnlock()

	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler Handler) {
	if handler == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}
