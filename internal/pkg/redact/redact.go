// redact маскирует чувствительные данные для логов (e-mail, токены, заголовки).
package redact

import (
	"net/http"
	"strings"
)

// Email маскирует e-mail: "foobar@example.com" -> "fo***@example.com".
// Строка без ровно одного '@' целиком заменяется на "***".
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token возвращает литерал-заглушку для токена в логах.
// Пустой токен остаётся пустым, чтобы в логах было видно его отсутствие.
func Token(tok string) string {
	if tok == "" {
		return ""
	}

	return "[REDACTED_TOKEN]"
}

// Header возвращает значение заголовка, пригодное для логирования.
func Header(name, value string) string {
	switch http.CanonicalHeaderKey(name) {
	case "Authorization", "Cookie", "Set-Cookie":
		return Token(value)
	default:
		return value
	}
}
