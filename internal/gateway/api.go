// gateway граница клиентской подсистемы с HTTP API бэкенда.
// Подсистема не знает ничего о путях и форматах ответов: всё, что ей нужно, описано интерфейсом API.
package gateway

import (
	"context"

	"github.com/pribylovaa/go-social-client/internal/models"
)

//go:generate mockgen -source=api.go -destination=../../mocks/api.go -package=mocks

// API операции бэкенда, которые вызывает подсистема взаимодействий.
//
// Контракт:
//   - Toggle* переключают флаг текущего пользователя на сервере и возвращают
//     авторитетную пару (total, flag);
//   - SetPresence сообщает серверу online/offline, тело ответа игнорируется;
//   - FetchComments возвращает плоский список комментариев поста.
//
// Ошибки: транспортные ошибки как есть, не-2xx ответы как *StatusError,
// неразборчивый ответ как ErrDecode.
type API interface {
	ToggleLike(ctx context.Context, ref models.TargetRef) (models.Toggled, error)
	ToggleSave(ctx context.Context, ref models.TargetRef) (models.Toggled, error)
	ToggleShare(ctx context.Context, ref models.TargetRef) (models.Toggled, error)
	SetPresence(ctx context.Context, online bool) error
	FetchComments(ctx context.Context, postID string) ([]models.Comment, error)
}
