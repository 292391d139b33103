package models

import "github.com/golang-jwt/jwt/v5"

// Claims - полезная нагрузка bearer-токена, выпущенного бэкендом библиотеки.
//
// Поля:
//   - UserID - идентификатор пользователя (claim "id"); если бэкенд его не
//     прислал, идентификатором считается Subject ("sub");
//   - Roles - набор ролей (например, ROLE_USER, ROLE_ADMIN);
//   - IssuedAt/ExpiresAt - из jwt.RegisteredClaims ("iat"/"exp").
type Claims struct {
	UserID string   `json:"id,omitempty"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// Identifier возвращает идентификатор пользователя: "id", иначе "sub".
func (c *Claims) Identifier() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return c.UserID
	}

	return c.Subject
}
