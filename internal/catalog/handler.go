// internal/catalog/handler.go
package catalog

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

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID           string `json:"id"`
		Title        string `json:"title"`
		Kind         string `json:"kind"`
		Author       string `json:"author"`
		IssueDate    string `json:"issue_date"`
		DurationDays int    `json:"duration_days"`
	}

	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	item, err := itemFromRequest(req.ID, req.Title, req.Kind, req.Author, req.IssueDate, req.DurationDays)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.service.AddItem(r.Context(), item)
	if err != nil {
		respond.ServiceError(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, view)
}

func (h *Handler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListItems(r.Context())
	if err != nil {
		respond.ServiceError(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, views)
}

func (h *Handler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemID")

	view, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			respond.Error(w, r, http.StatusNotFound, err.Error())
			return
		}
		respond.ServiceError(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, view)
}

func itemFromRequest(id, title, kind, author, issueDate string, durationDays int) (Item, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	if id == "" {
		return Item{}, errors.New("id is required")
	}
	if title == "" {
		return Item{}, errors.New("title is required")
	}

	k, err := ParseKind(kind)
	if err != nil {
		return Item{}, err
	}

	switch k {
	case KindLightNovel:
		if author == "" {
			return Item{}, errors.New("author is required for light novels")
		}
		return *NewLightNovel(id, title, author), nil
	case KindPeriodical:
		if issueDate == "" {
			return Item{}, errors.New("issue_date is required for periodicals")
		}
		return *NewPeriodical(id, title, issueDate), nil
	default:
		if durationDays <= 0 {
			return Item{}, errors.New("duration_days must be positive for fiction")
		}
		return *NewFiction(id, title, durationDays), nil
	}
}
