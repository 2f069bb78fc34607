// handlers REST-обработчики локального API, которыми UI-оболочка управляет подсистемой.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pribylovaa/go-social-client/internal/models"
)

// Interactions операции реконсайлера.
type Interactions interface {
	Toggle(ctx context.Context, key models.TargetKey) (models.Interaction, error)
	Load(key models.TargetKey, state models.InteractionState) error
	State(key models.TargetKey) (models.Interaction, bool)
}

// Threads кэш деревьев комментариев.
type Threads interface {
	Refresh(ctx context.Context, postID string) ([]*models.CommentNode, error)
	Thread(postID string) ([]*models.CommentNode, bool)
	Forget(postID string)
}

// Presence менеджер присутствия.
type Presence interface {
	RecordActivity(ctx context.Context) error
	GoOffline(ctx context.Context) error
	State() models.PresenceState
}

// Realtime аренда realtime-канала.
type Realtime interface {
	Ensure(ctx context.Context) error
	Close()
	State() models.ConnState
}

// Roster статусы других пользователей.
type Roster interface {
	Snapshot() map[string]bool
}

// Handlers агрегирует зависимости.
type Handlers struct {
	Interactions Interactions
	Threads      Threads
	Presence     Presence
	Realtime     Realtime
	Roster       Roster

	validate *validator.Validate
}

// New собирает обработчики.
func New(i Interactions, th Threads, p Presence, rt Realtime, ro Roster) *Handlers {
	return &Handlers{
		Interactions: i,
		Threads:      th,
		Presence:     p,
		Realtime:     rt,
		Roster:       ro,
		validate:     validator.New(),
	}
}

// writeJSON единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict строгий JSON-декодер: неизвестные поля запрещены.
// allowEmpty разрешает пустое тело.
func decodeStrict(r *http.Request, value any, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(value)
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}

	return err
}
