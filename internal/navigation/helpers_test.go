package navigation

import (
	"io"
	"log/slog"
	"slices"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSession - неизменяемый набор ролей.
type fakeSession []string

func (f fakeSession) Roles() []string          { return slices.Clone(f) }
func (f fakeSession) HasRole(role string) bool { return slices.Contains(f, role) }

var (
	anonymous = fakeSession(nil)
	reader    = fakeSession{"ROLE_READER"}
	admin     = fakeSession{"ROLE_READER", RoleAdmin}
)
