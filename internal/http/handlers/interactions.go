package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-social-client/internal/errors"
	"github.com/pribylovaa/go-social-client/internal/models"
)

// targetKey собирает ключ из {entity}/{id}/{kind}; postID берётся из тела или query.
func targetKey(r *http.Request, postID string) (models.TargetKey, error) {
	entity, err := models.ParseEntity(chi.URLParam(r, "entity"))
	if err != nil {
		return models.TargetKey{}, fmt.Errorf("%w: %v", apierrors.ErrInvalidArgument, err)
	}

	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return models.TargetKey{}, fmt.Errorf("%w: %v", apierrors.ErrInvalidArgument, err)
	}

	if postID == "" {
		postID = r.URL.Query().Get("post_id")
	}

	key := models.TargetKey{
		Ref: models.TargetRef{
			Entity: entity,
			ID:     strings.TrimSpace(chi.URLParam(r, "id")),
			PostID: strings.TrimSpace(postID),
		},
		Kind: kind,
	}
	if err := key.Validate(); err != nil {
		return models.TargetKey{}, fmt.Errorf("%w: %v", apierrors.ErrInvalidArgument, err)
	}

	return key, nil
}

// ToggleInteraction оптимистично переключает цель; ответ 202 с уже изменённым состоянием.
func (h *Handlers) ToggleInteraction(w http.ResponseWriter, r *http.Request) {
	var in toggleRequest
	if err := decodeStrict(r, &in, true); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	key, err := targetKey(r, in.PostID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out, err := h.Interactions.Toggle(r.Context(), key)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, toInteractionView(out))
}

// GetInteraction текущее состояние цели; 404, если цель не загружалась и не переключалась.
func (h *Handlers) GetInteraction(w http.ResponseWriter, r *http.Request) {
	key, err := targetKey(r, "")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out, ok := h.Interactions.State(key)
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toInteractionView(out))
}

// LoadInteraction засевает цель данными сервера (лента загружена или обновлена).
func (h *Handlers) LoadInteraction(w http.ResponseWriter, r *http.Request) {
	var in loadRequest
	if err := decodeStrict(r, &in, false); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	key, err := targetKey(r, in.PostID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.Interactions.Load(key, models.InteractionState{Count: *in.Count, Flag: in.Flag}); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out, _ := h.Interactions.State(key)
	writeJSON(w, http.StatusOK, toInteractionView(out))
}
