// internal/circulation/handler.go
package circulation

import (
	"net/http"
	"strings"

	"lendingregistry/internal/outcome"
	"lendingregistry/internal/respond"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// OutcomeResponse is the wire form of an outcome.
type OutcomeResponse struct {
	outcome.Outcome
	Message string `json:"message"`
}

type loanRequest struct {
	MemberID string `json:"member_id"`
	ItemID   string `json:"item_id"`
}

func (h *Handler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLoanRequest(w, r)
	if !ok {
		return
	}

	res, err := h.service.BorrowItem(r.Context(), req.MemberID, req.ItemID)
	if err != nil {
		respond.ServiceError(w, r, err)
		return
	}

	writeOutcome(w, res)
}

func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLoanRequest(w, r)
	if !ok {
		return
	}

	res, err := h.service.ReturnItem(r.Context(), req.MemberID, req.ItemID)
	if err != nil {
		respond.ServiceError(w, r, err)
		return
	}

	writeOutcome(w, res)
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		respond.ServiceError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/plain") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(summary.String()))
		return
	}

	respond.JSON(w, http.StatusOK, summary)
}

func decodeLoanRequest(w http.ResponseWriter, r *http.Request) (loanRequest, bool) {
	var req loanRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return req, false
	}
	if req.MemberID == "" || req.ItemID == "" {
		respond.Error(w, r, http.StatusBadRequest, "member_id and item_id are required")
		return req, false
	}
	return req, true
}

// StatusFor maps an outcome kind onto an HTTP status.
func StatusFor(kind outcome.Kind) int {
	switch kind {
	case outcome.Success:
		return http.StatusOK
	case outcome.NotFound:
		return http.StatusNotFound
	case outcome.AlreadyBorrowed, outcome.NotBorrowed:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeOutcome(w http.ResponseWriter, res outcome.Outcome) {
	respond.JSON(w, StatusFor(res.Kind), OutcomeResponse{Outcome: res, Message: res.String()})
}
