// navigation - таблица маршрутов клиента, guard переходов и роутер,
// реагирующий на сброс сессии.
package navigation

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
)

var (
	// ErrRouteNotFound - путь не соответствует ни одному маршруту.
	ErrRouteNotFound = errors.New("route not found")
	// ErrDuplicateRoute - два маршрута с одинаковым шаблоном.
	ErrDuplicateRoute = errors.New("duplicate route")
	// ErrRedirectLoop - guard перенаправляет по кругу.
	ErrRedirectLoop = errors.New("redirect loop")
)

// Пути и имена служебных маршрутов.
const (
	LoginPath = "/login"
	HomePath  = "/"

	RouteLogin    = "Login"
	RouteRegister = "Register"
)

// Requirement - статические требования маршрута. Задаются при построении
// таблицы и дальше не меняются.
type Requirement struct {
	RequiresAuth bool
	RequiresRole string
}

// merge накладывает требования дочернего маршрута на родительские:
// RequiresAuth наследуется, RequiresRole берётся у самого глубокого
// маршрута, где она задана.
func (r Requirement) merge(child Requirement) Requirement {
	out := Requirement{RequiresAuth: r.RequiresAuth || child.RequiresAuth, RequiresRole: r.RequiresRole}
	if child.RequiresRole != "" {
		out.RequiresRole = child.RequiresRole
	}

	return out
}

// RouteRecord - декларация маршрута. Path дочерней записи без ведущего "/"
// считается относительным к родителю; параметры - в синтаксисе chi ({id}).
// Запись без имени, но с детьми - layout и отдельно не сопоставляется.
type RouteRecord struct {
	Path     string
	Name     string
	Meta     Requirement
	Children []RouteRecord
}

// Route - разрешённый маршрут с полным шаблоном и итоговыми требованиями.
type Route struct {
	Name    string
	Pattern string
	Meta    Requirement
}

// Location - результат разрешения конкретного пути.
type Location struct {
	Path   string
	Route  Route
	Params map[string]string
	// RedirectedFrom - исходный путь, если guard перенаправил переход.
	RedirectedFrom string
}

// Table - неизменяемая таблица маршрутов. Сопоставление путей выполняет chi.
type Table struct {
	mux    *chi.Mux
	routes map[string]Route
	order  []Route
}

// NewTable разворачивает дерево записей и строит таблицу.
func NewTable(records []RouteRecord) (*Table, error) {
	const op = "navigation.NewTable"

	t := &Table{mux: chi.NewRouter(), routes: make(map[string]Route)}
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	var walk func(parent string, meta Requirement, recs []RouteRecord) error
	walk = func(parent string, meta Requirement, recs []RouteRecord) error {
		for _, rec := range recs {
			pattern := joinPattern(parent, rec.Path)
			merged := meta.merge(rec.Meta)

			// Безымянная запись с детьми - layout: сама не сопоставляется,
			// только передаёт требования вниз.
			if rec.Name != "" || len(rec.Children) == 0 {
				if _, dup := t.routes[pattern]; dup {
					return fmt.Errorf("%s: %w: %s", op, ErrDuplicateRoute, pattern)
				}

				route := Route{Name: rec.Name, Pattern: pattern, Meta: merged}
				t.routes[pattern] = route
				t.order = append(t.order, route)
				t.mux.Get(pattern, noop)
			}

			if err := walk(pattern, merged, rec.Children); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk("", Requirement{}, records); err != nil {
		return nil, err
	}

	return t, nil
}

// MustTable - NewTable с panic при ошибке (для статических таблиц).
func MustTable(records []RouteRecord) *Table {
	t, err := NewTable(records)
	if err != nil {
		panic(err)
	}

	return t
}

// Routes возвращает маршруты в порядке объявления.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.order...)
}

// Resolve сопоставляет путь (допускаются query и fragment) с маршрутом.
func (t *Table) Resolve(raw string) (Location, error) {
	const op = "navigation.Table.Resolve"

	p, err := normalizePath(raw)
	if err != nil {
		return Location{}, fmt.Errorf("%s: %w: %s", op, ErrRouteNotFound, raw)
	}

	rctx := chi.NewRouteContext()
	pattern := t.mux.Find(rctx, http.MethodGet, p)
	route, ok := t.routes[pattern]
	if pattern == "" || !ok {
		return Location{}, fmt.Errorf("%s: %w: %s", op, ErrRouteNotFound, p)
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		params[k] = rctx.URLParams.Values[i]
	}

	return Location{Path: p, Route: route, Params: params}, nil
}

func joinPattern(parent, child string) string {
	switch {
	case strings.HasPrefix(child, "/"):
		return cleanPattern(child)
	case child == "":
		return cleanPattern(parent)
	default:
		return cleanPattern(parent + "/" + child)
	}
}

func cleanPattern(p string) string {
	if p == "" {
		return "/"
	}

	return path.Clean("/" + p)
}

func normalizePath(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}

	return cleanPattern(u.Path), nil
}
