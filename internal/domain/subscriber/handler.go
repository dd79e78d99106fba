package subscriber

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bonuslab/loyalty-api/internal/domain/pending"
	"github.com/bonuslab/loyalty-api/internal/pkg/response"
	"github.com/bonuslab/loyalty-api/internal/pkg/validator"
)

type Handler struct {
	otp      *OTPService
	repo     Repository
	pendings *pending.Service
}

func NewHandler(otp *OTPService, repo Repository, pendings *pending.Service) *Handler {
	return &Handler{otp: otp, repo: repo, pendings: pendings}
}

type requestCodeRequest struct {
	Mobile string `json:"mobile" validate:"required,mobile"`
}

type verifyCodeRequest struct {
	Mobile string `json:"mobile" validate:"required,mobile"`
	Code   string `json:"code" validate:"required,len=6,numeric"`
}

type updateNameRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// RequestCode handles POST /auth/subscriber/request-code
func (h *Handler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	if err := h.otp.RequestCode(r.Context(), req.Mobile); err != nil {
		if errors.Is(err, ErrInvalidMobile) {
			response.BadRequest(w, "Invalid mobile number")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"sent": true})
}

// VerifyCode handles POST /auth/subscriber/verify
func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	sub, err := h.otp.VerifyCode(r.Context(), req.Mobile, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidMobile):
			response.BadRequest(w, "Invalid mobile number")
		case errors.Is(err, ErrInvalidCode):
			response.Error(w, http.StatusUnprocessableEntity, "INVALID_CODE", "Verification code is wrong or expired")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, sub)
}

// Get handles GET /subscribers/{mobile}: the subscriber row plus the
// composed balance.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	mobile := chi.URLParam(r, "mobile")
	if !validator.IsMobile(mobile) {
		response.BadRequest(w, "Invalid mobile number")
		return
	}

	sub, err := h.repo.GetByMobile(r.Context(), mobile)
	if err != nil {
		response.InternalError(w)
		return
	}
	if sub == nil {
		response.NotFound(w, "Subscriber not found")
		return
	}

	balance, err := h.pendings.CombinedBalance(r.Context(), sub.ID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"subscriber": sub,
		"balance":    balance,
	})
}

// Balance handles GET /subscribers/{mobile}/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	mobile := chi.URLParam(r, "mobile")
	if !validator.IsMobile(mobile) {
		response.BadRequest(w, "Invalid mobile number")
		return
	}

	balance, err := h.pendings.CombinedBalanceByMobile(r.Context(), mobile)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, pending.ErrSubscriberNotFound) {
			response.NotFound(w, "Subscriber not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, balance)
}

// UpdateName handles PUT /subscribers/{mobile}/name
func (h *Handler) UpdateName(w http.ResponseWriter, r *http.Request) {
	mobile := chi.URLParam(r, "mobile")
	if !validator.IsMobile(mobile) {
		response.BadRequest(w, "Invalid mobile number")
		return
	}

	var req updateNameRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	sub, err := h.repo.GetByMobile(r.Context(), mobile)
	if err != nil {
		response.InternalError(w)
		return
	}
	if sub == nil {
		response.NotFound(w, "Subscriber not found")
		return
	}

	if err := h.repo.UpdateName(r.Context(), sub.ID, req.Name); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Subscriber not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"updated": true})
}
