package admin

import (
	"errors"
	"net/http"

	"github.com/bonuslab/loyalty-api/internal/pkg/response"
	"github.com/bonuslab/loyalty-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Login handles POST /auth/admin/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	resp, err := h.svc.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(w, "Invalid mobile or password")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, resp)
}

// Create handles POST /admins (manager only)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	a, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrMobileExists) {
			response.Conflict(w, "Admin with this mobile already exists")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, a)
}

// List handles GET /admins (manager only)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.svc.List(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"admins": admins,
		"count":  len(admins),
	})
}
