// internal/membership/handler.go
package membership

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lendingregistry/internal/respond"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Passphrase string `json:"passphrase"`
	}

	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if req.ID == "" || req.Name == "" {
		respond.Error(w, r, http.StatusBadRequest, "id and name are required")
		return
	}

	view, err := h.service.AddMember(r.Context(), req.ID, req.Name, req.Passphrase)
	if err != nil {
		respond.ServiceError(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, view)
}

func (h *Handler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListMembers(r.Context())
	if err != nil {
		respond.ServiceError(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, views)
}

func (h *Handler) HandleGetMember(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetMember(r.Context(), chi.URLParam(r, "memberID"))
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, view)
}

func (h *Handler) HandleBorrowedItems(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memberID")

	listing, err := h.service.BorrowedItems(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"member_id": id, "listing": listing})
}

func (h *Handler) HandleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passphrase string `json:"passphrase"`
	}

	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	err := h.service.Authenticate(r.Context(), chi.URLParam(r, "memberID"), req.Passphrase)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, ErrRateLimited):
		respond.Error(w, r, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrMemberNotFound):
		respond.Error(w, r, http.StatusUnauthorized, ErrInvalidCredentials.Error())
	default:
		respond.ServiceError(w, r, err)
	}
}

func (h *Handler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrMemberNotFound) {
		respond.Error(w, r, http.StatusNotFound, err.Error())
		return
	}
	respond.ServiceError(w, r, err)
}
