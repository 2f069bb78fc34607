package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-social-client/internal/errors"
)

// ListComments обновляет дерево комментариев поста.
// Если сервер недоступен, но дерево уже было, отдаёт его с stale=true.
func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	postID := strings.TrimSpace(chi.URLParam(r, "id"))
	if postID == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	tree, err := h.Threads.Refresh(r.Context(), postID)
	if err != nil {
		if _, ok := h.Threads.Thread(postID); !ok {
			apierrors.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toThreadView(postID, tree, true))
		return
	}

	writeJSON(w, http.StatusOK, toThreadView(postID, tree, false))
}

// ForgetComments выбрасывает дерево поста из кэша (экран закрыт).
func (h *Handlers) ForgetComments(w http.ResponseWriter, r *http.Request) {
	postID := strings.TrimSpace(chi.URLParam(r, "id"))
	if postID == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	h.Threads.Forget(postID)
	w.WriteHeader(http.StatusNoContent)
}
