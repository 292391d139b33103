package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pribylovaa/go-library-client/internal/models"
)

// ErrMalformedToken - токен не разбирается или не содержит обязательных claims.
var ErrMalformedToken = errors.New("malformed token")

var parser = jwt.NewParser()

// Decode извлекает claims из токена без проверки подписи и срока действия.
//
// Токен структурно валиден, если:
//   - это компактный JWT из трёх сегментов с корректными base64/JSON;
//   - iat/exp (если есть) - числа;
//   - есть идентификатор пользователя ("id" или "sub");
//   - есть хотя бы одна непустая роль.
//
// Роли нормализуются: пустые отбрасываются, дубликаты схлопываются.
func Decode(token string) (*models.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}

	claims := &models.Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	if claims.Identifier() == "" {
		return nil, fmt.Errorf("%w: missing subject identifier", ErrMalformedToken)
	}

	claims.Roles = normalizeRoles(claims.Roles)
	if len(claims.Roles) == 0 {
		return nil, fmt.Errorf("%w: missing roles", ErrMalformedToken)
	}

	return claims, nil
}

func normalizeRoles(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))

	for _, r := range in {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}

	return out
}
