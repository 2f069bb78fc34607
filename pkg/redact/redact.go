// redact маскирует секреты (токены, секреты в URL) перед записью в лог.
package redact

import (
	"net/url"
	"strings"
)

// secretParams перечисляет query-параметры, значения которых нельзя писать в лог.
var secretParams = []string{"token", "access_token", "auth", "key"}

// Token возвращает заглушку для токена; пустой токен остаётся пустым,
// чтобы в логе было видно его отсутствие.
func Token(tok string) string {
	if strings.TrimSpace(tok) == "" {
		return ""
	}

	return "[REDACTED_TOKEN]"
}

// URL заменяет значения секретных query-параметров и пароль userinfo на "***".
// Непарсируемая строка целиком заменяется на "***".
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}

	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}

	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "***")
			changed = true
		}
	}

	if changed {
		u.RawQuery = q.Encode()
	}

	return u.String()
}
