package navigation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pribylovaa/go-library-client/internal/events"
)

// maxRedirects ограничивает цепочку перенаправлений одного перехода.
const maxRedirects = 8

// Subscriber - источник событий сессии (session.Manager или events.Dispatcher).
type Subscriber interface {
	Subscribe(eventType events.EventType, handler events.Handler)
}

// Router выполняет переходы через Guard и хранит текущее положение.
type Router struct {
	table *Table
	sess  SessionView
	log   *slog.Logger

	mu      sync.Mutex
	current Location
	history []Location
}

// NewRouter создаёт роутер. До первого Push текущее положение пустое.
func NewRouter(table *Table, sess SessionView, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{table: table, sess: sess, log: log}
}

// Push разрешает путь, прогоняет guard и следует перенаправлениям.
// Каждый успешный вызов фиксирует ровно одну навигацию.
func (r *Router) Push(ctx context.Context, to string) (Location, error) {
	const op = "navigation.Router.Push"

	requested := to
	for hop := 0; hop <= maxRedirects; hop++ {
		loc, err := r.table.Resolve(to)
		if err != nil {
			return Location{}, fmt.Errorf("%s: %w", op, err)
		}

		d := Guard(loc.Route, r.sess)
		if d.Allow {
			if loc.Path != requested {
				loc.RedirectedFrom = requested
			}
			r.commit(loc)

			r.log.DebugContext(ctx, "navigation",
				slog.String("path", loc.Path),
				slog.String("route", loc.Route.Name),
				slog.String("redirected_from", loc.RedirectedFrom),
			)
			return loc, nil
		}

		r.log.DebugContext(ctx, "navigation_redirect",
			slog.String("from", loc.Path),
			slog.String("to", d.Redirect),
		)
		to = d.Redirect
	}

	return Location{}, fmt.Errorf("%s: %w: %s", op, ErrRedirectLoop, requested)
}

// Current возвращает текущее положение.
func (r *Router) Current() Location {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.current
}

// History возвращает копию всех зафиксированных навигаций.
func (r *Router) History() []Location {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Location(nil), r.history...)
}

// Bind подписывает роутер на события сессии:
//   - SessionEstablished (логин) - переход на главную;
//   - SessionCleared - переход на /login.
//
// Каждое событие приводит ровно к одной навигации.
func (r *Router) Bind(sub Subscriber) {
	sub.Subscribe(events.SessionEstablished, func(ctx context.Context, e events.Event) error {
		_, err := r.Push(ctx, HomePath)
		return err
	})
	sub.Subscribe(events.SessionCleared, func(ctx context.Context, e events.Event) error {
		r.log.InfoContext(ctx, "redirect_to_login", slog.String("reason", string(e.Reason)))

		_, err := r.Push(ctx, LoginPath)
		return err
	})
}

// Routes возвращает маршруты таблицы в порядке объявления.
func (r *Router) Routes() []Route {
	return r.table.Routes()
}

func (r *Router) commit(loc Location) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = loc
	r.history = append(r.history, loc)
}
