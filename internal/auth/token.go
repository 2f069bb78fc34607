// auth описывает границу с внешним Auth-коллаборатором: хранение токена
// вне этого репозитория, здесь только контракт его получения.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrNoToken токен отсутствует (пользователь не вошёл или вышел).
var ErrNoToken = errors.New("no auth token")

// TokenSource выдаёт текущий токен доступа.
// Реализация должна возвращать ErrNoToken, если токена нет.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc адаптер функции к TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Holder потокобезопасный TokenSource, который обновляет сам Auth-слой
// (после логина, рефреша или логаута).
type Holder struct {
	mu    sync.RWMutex
	token string
}

// NewHolder создаёт Holder с начальным токеном (может быть пустым).
func NewHolder(token string) *Holder {
	return &Holder{token: strings.TrimSpace(token)}
}

// Set заменяет токен; пустая строка эквивалентна Clear.
func (h *Holder) Set(token string) {
	h.mu.Lock()
	h.token = strings.TrimSpace(token)
	h.mu.Unlock()
}

// Clear удаляет токен (логаут).
func (h *Holder) Clear() { h.Set("") }

// Token возвращает токен или ErrNoToken.
func (h *Holder) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.token == "" {
		return "", ErrNoToken
	}

	return h.token, nil
}
