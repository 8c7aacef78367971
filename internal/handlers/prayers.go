package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"namaz-tracker/internal/middleware"
	"namaz-tracker/internal/models"
	"namaz-tracker/internal/prayers"
)

type prayerService interface {
	Items() []string
	Today() string
	Get(ctx context.Context, userID uuid.UUID, dateID string) (*models.RecordResponse, error)
	SetField(ctx context.Context, userID uuid.UUID, dateID, name string, value bool) (*models.PrayerUpdate, error)
	Toggle(ctx context.Context, userID uuid.UUID, dateID, name string) (*models.PrayerUpdate, error)
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]prayers.Record, error)
	Range(ctx context.Context, userID uuid.UUID, from, to string) ([]prayers.Record, error)
	History(ctx context.Context, userID uuid.UUID, days int, end string) (*models.HistoryResponse, error)
}

const defaultHistoryDays = 7

type PrayerHandler struct {
	prayerService prayerService
}

func NewPrayerHandler(prayerService prayerService) *PrayerHandler {
	return &PrayerHandler{prayerService: prayerService}
}

func (h *PrayerHandler) Items(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ItemsResponse{Prayers: h.prayerService.Items()})
}

// Get returns one day's record. "today" resolves to the server's day.
func (h *PrayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	dateID := h.dateParam(r)

	record, err := h.prayerService.Get(r.Context(), middleware.GetUserID(r.Context()), dateID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *PrayerHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req models.SetPrayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Value == nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "value is required",
			map[string]string{"value": "value is required"}, r))
		return
	}

	update, err := h.prayerService.SetField(r.Context(), middleware.GetUserID(r.Context()),
		h.dateParam(r), chi.URLParam(r, "prayer"), *req.Value)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, update)
}

func (h *PrayerHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	update, err := h.prayerService.Toggle(r.Context(), middleware.GetUserID(r.Context()),
		h.dateParam(r), chi.URLParam(r, "prayer"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, update)
}

// Records lists either the most recently modified records (?limit=N) or
// every record in a day range (?from=&to=).
func (h *PrayerHandler) Records(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := middleware.GetUserID(r.Context())

	var (
		records []prayers.Record
		err     error
	)
	if q.Get("from") != "" || q.Get("to") != "" {
		records, err = h.prayerService.Range(r.Context(), userID, q.Get("from"), q.Get("to"))
	} else {
		limit, convErr := strconv.Atoi(q.Get("limit"))
		if convErr != nil {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "limit must be a number",
				map[string]string{"limit": "limit must be a number"}, r))
			return
		}
		records, err = h.prayerService.Recent(r.Context(), userID, limit)
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.RecordsResponse{Records: records})
}

func (h *PrayerHandler) History(w http.ResponseWriter, r *http.Request) {
	days := defaultHistoryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "days must be a number",
				map[string]string{"days": "days must be a number"}, r))
			return
		}
		days = n
	}

	history, err := h.prayerService.History(r.Context(), middleware.GetUserID(r.Context()), days, r.URL.Query().Get("end"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *PrayerHandler) dateParam(r *http.Request) string {
	dateID := chi.URLParam(r, "date")
	if dateID == "today" {
		return h.prayerService.Today()
	}
	return dateID
}
