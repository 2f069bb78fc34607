// Package models содержит доменные сущности клиентской подсистемы взаимодействий.
package models

import (
	"fmt"
	"strings"
)

// Entity тип объекта, над которым выполняется действие.
type Entity string

const (
	EntityPost    Entity = "post"
	EntityComment Entity = "comment"
)

// Kind вид переключаемого действия.
type Kind string

const (
	KindLike  Kind = "like"
	KindSave  Kind = "save"
	KindShare Kind = "share"
)

// ParseEntity разбирает строковое представление Entity.
func ParseEntity(s string) (Entity, error) {
	switch e := Entity(strings.ToLower(strings.TrimSpace(s))); e {
	case EntityPost, EntityComment:
		return e, nil
	default:
		return "", fmt.Errorf("unknown entity %q", s)
	}
}

// ParseKind разбирает строковое представление Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindLike, KindSave, KindShare:
		return k, nil
	default:
		return "", fmt.Errorf("unknown kind %q", s)
	}
}

// TargetRef идентифицирует пост или комментарий.
// Для комментариев PostID обязателен: бэкенд лайка комментария требует id поста.
type TargetRef struct {
	Entity Entity
	ID     string
	PostID string
}

// TargetKey единица согласования: один счётчик на цель и вид действия.
type TargetKey struct {
	Ref  TargetRef
	Kind Kind
}

// String используется в логах и метках.
func (k TargetKey) String() string {
	return string(k.Ref.Entity) + ":" + k.Ref.ID + ":" + string(k.Kind)
}

// Validate проверяет согласованность ключа.
// Поддерживаемые комбинации: post × {like, save, share}, comment × like.
func (k TargetKey) Validate() error {
	if strings.TrimSpace(k.Ref.ID) == "" {
		return fmt.Errorf("empty target id")
	}

	switch k.Ref.Entity {
	case EntityPost:
		switch k.Kind {
		case KindLike, KindSave, KindShare:
			return nil
		}
	case EntityComment:
		if strings.TrimSpace(k.Ref.PostID) == "" {
			return fmt.Errorf("comment %s: empty post id", k.Ref.ID)
		}
		if k.Kind == KindLike {
			return nil
		}
	default:
		return fmt.Errorf("unknown entity %q", k.Ref.Entity)
	}

	return fmt.Errorf("%s does not support %q", k.Ref.Entity, k.Kind)
}

// InteractionState пара (count, flag) с точки зрения текущего пользователя.
type InteractionState struct {
	Count int  `json:"count"`
	Flag  bool `json:"flag"`
}

// Toggled авторитетный ответ сервера на переключение.
type Toggled struct {
	Total int
	Flag  bool
}

// Interaction снимок состояния цели, который получают подписчики.
//   - Seq номер последнего выданного запроса по цели;
//   - Pending есть ли ещё неподтверждённый запрос с этим Seq.
type Interaction struct {
	Key     TargetKey
	State   InteractionState
	Seq     uint64
	Pending bool
}
