package models

import "slices"

// Session - снимок текущей сессии, производный от сохранённого токена.
//
// Инвариант: len(Roles) > 0 тогда и только тогда, когда UserID не пуст.
type Session struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

// Authenticated сообщает, есть ли в снимке залогиненный пользователь.
func (s Session) Authenticated() bool {
	return s.UserID != "" && len(s.Roles) > 0
}

// HasRole - проверка членства роли.
func (s Session) HasRole(role string) bool {
	return slices.Contains(s.Roles, role)
}
