package reversal

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bonuslab/loyalty-api/internal/middleware"
	"github.com/bonuslab/loyalty-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Reverse handles DELETE /transactions/{kind}/{id}
func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())

	kind := Kind(chi.URLParam(r, "kind"))
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid transaction ID")
		return
	}

	info, err := h.svc.Reverse(r.Context(), Actor{
		Mobile:     actor.Mobile,
		Privileged: actor.Privileged,
	}, kind, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownKind):
			response.BadRequest(w, "Transaction kind must be purchase or credit_usage")
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Transaction not found")
		case errors.Is(err, ErrAlreadyReversed):
			response.Conflict(w, "Transaction already reversed")
		case errors.Is(err, ErrPermissionDenied):
			response.Forbidden(w, "You may only reverse your own recent transactions")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{
		"reversed": true,
		"kind":     info.Kind,
		"id":       info.ID,
	})
}
