package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"namaz-tracker/internal/middleware"
	"namaz-tracker/internal/prayers"
)

type statsService interface {
	Stats(ctx context.Context, userID uuid.UUID, days int) (*prayers.Stats, error)
}

const defaultStatsDays = 30

type DashboardHandler struct {
	stats statsService
}

func NewDashboardHandler(stats statsService) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

// Stats reports completion counts and the current streak over the last
// `days` days (30 by default).
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days := defaultStatsDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "days must be a number",
				map[string]string{"days": "days must be a number"}, r))
			return
		}
		days = n
	}

	stats, err := h.stats.Stats(r.Context(), middleware.GetUserID(r.Context()), days)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
