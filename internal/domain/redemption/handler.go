package redemption

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bonuslab/loyalty-api/internal/middleware"
	"github.com/bonuslab/loyalty-api/internal/pkg/response"
	"github.com/bonuslab/loyalty-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type spendRequest struct {
	Mobile string  `json:"mobile" validate:"required,mobile"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// Spend handles POST /credit-usages
func (h *Handler) Spend(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())

	var req spendRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	usage, err := h.svc.Spend(r.Context(), req.Mobile, req.Amount, actor.Mobile)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "Amount must be greater than zero")
		case errors.Is(err, ErrSubscriberNotFound):
			response.NotFound(w, "Subscriber not found")
		case errors.Is(err, ErrInsufficientCredit):
			response.Conflict(w, "Insufficient credit balance")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, usage)
}

// List handles GET /credit-usages
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	mobile := r.URL.Query().Get("mobile")
	if mobile != "" && !validator.IsMobile(mobile) {
		response.BadRequest(w, "Invalid mobile number")
		return
	}

	limit, offset := 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	usages, err := h.svc.List(r.Context(), mobile, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"usages": usages,
		"count":  len(usages),
	})
}
