package purchase

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

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

type createRequest struct {
	Mobile        string `json:"mobile" validate:"required,mobile"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	BranchID      *int   `json:"branch_id,omitempty"`
	SalesCenterID *int   `json:"sales_center_id,omitempty"`
}

// Create handles POST /purchases
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())

	var req createRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	p, err := h.svc.Record(r.Context(), RecordParams{
		Mobile:        req.Mobile,
		Amount:        req.Amount,
		BranchID:      req.BranchID,
		SalesCenterID: req.SalesCenterID,
		AdminMobile:   actor.Mobile,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "Amount must be greater than zero")
		case errors.Is(err, ErrInvalidMobile):
			response.BadRequest(w, "Invalid mobile number")
		case errors.Is(err, ErrUnknownBranch):
			response.BadRequest(w, "Unknown branch or sales center")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, map[string]interface{}{
		"purchase": p,
		"credit":   h.svc.EarnedCredit(p.Amount),
	})
}

// Get handles GET /purchases/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid purchase ID")
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Purchase not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, p)
}

// List handles GET /purchases
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Mobile: r.URL.Query().Get("mobile"),
		Limit:  parseQueryInt(r, "limit", 50),
		Offset: parseQueryInt(r, "offset", 0),
	}
	if v := r.URL.Query().Get("branch_id"); v != "" {
		branchID, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(w, "Invalid branch_id")
			return
		}
		filter.BranchID = &branchID
	}

	purchases, err := h.svc.List(r.Context(), filter)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"purchases": purchases,
		"count":     len(purchases),
	})
}

func parseQueryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
