package settlement

import (
	"net/http"

	"github.com/bonuslab/loyalty-api/internal/pkg/response"
)

type Handler struct {
	runner *Runner
}

func NewHandler(runner *Runner) *Handler {
	return &Handler{runner: runner}
}

// Run handles POST /settlement/run (manager only): trigger a cycle
// outside the schedule, e.g. after a maintenance window.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.Run(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	if summary.Skipped {
		response.Conflict(w, "A settlement run is already in progress")
		return
	}

	response.OK(w, summary)
}
