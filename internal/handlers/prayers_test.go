package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"namaz-tracker/internal/middleware"
	"namaz-tracker/internal/models"
	"namaz-tracker/internal/prayers"
	"namaz-tracker/internal/services"
)

type stubPrayerService struct {
	lastUser   uuid.UUID
	lastDate   string
	lastPrayer string
	lastValue  bool
	lastLimit  int
	lastRange  [2]string
	lastDays   int
	lastEnd    string
	err        error
}

func (s *stubPrayerService) Items() []string { return prayers.DefaultNames }

func (s *stubPrayerService) Today() string { return "2026-10-18" }

func (s *stubPrayerService) Get(ctx context.Context, userID uuid.UUID, dateID string) (*models.RecordResponse, error) {
	s.lastUser, s.lastDate = userID, dateID
	if s.err != nil {
		return nil, s.err
	}
	return &models.RecordResponse{Date: dateID, Prayers: map[string]bool{"fajr": false}}, nil
}

func (s *stubPrayerService) SetField(ctx context.Context, userID uuid.UUID, dateID, name string, value bool) (*models.PrayerUpdate, error) {
	s.lastUser, s.lastDate, s.lastPrayer, s.lastValue = userID, dateID, name, value
	if s.err != nil {
		return nil, s.err
	}
	return &models.PrayerUpdate{Date: dateID, Prayer: name, Value: value, LastModified: time.Now()}, nil
}

func (s *stubPrayerService) Toggle(ctx context.Context, userID uuid.UUID, dateID, name string) (*models.PrayerUpdate, error) {
	s.lastUser, s.lastDate, s.lastPrayer = userID, dateID, name
	if s.err != nil {
		return nil, s.err
	}
	return &models.PrayerUpdate{Date: dateID, Prayer: name, Value: true}, nil
}

func (s *stubPrayerService) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]prayers.Record, error) {
	s.lastLimit = limit
	return []prayers.Record{{DateID: "2026-10-18", Status: map[string]bool{"asr": true}}}, s.err
}

func (s *stubPrayerService) Range(ctx context.Context, userID uuid.UUID, from, to string) ([]prayers.Record, error) {
	s.lastRange = [2]string{from, to}
	return []prayers.Record{}, s.err
}

func (s *stubPrayerService) History(ctx context.Context, userID uuid.UUID, days int, end string) (*models.HistoryResponse, error) {
	s.lastDays, s.lastEnd = days, end
	if s.err != nil {
		return nil, s.err
	}
	return &models.HistoryResponse{Days: days, Empty: true, Message: "No prayer records found for the selected period."}, nil
}

func (s *stubPrayerService) Stats(ctx context.Context, userID uuid.UUID, days int) (*prayers.Stats, error) {
	s.lastUser, s.lastDays = userID, days
	if s.err != nil {
		return nil, s.err
	}
	return &prayers.Stats{Days: days, Streak: 4, Completed: map[string]int{"fajr": 4}}, nil
}

func newPrayerRequest(method, target, body string, userID uuid.UUID, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	return req
}

func TestPrayerHandler_Set(t *testing.T) {
	svc := &stubPrayerService{}
	h := NewPrayerHandler(svc)
	userID := uuid.New()

	req := newPrayerRequest(http.MethodPut, "/api/v1/prayers/2026-10-18/fajr", `{"value":true}`, userID,
		map[string]string{"date": "2026-10-18", "prayer": "fajr"})
	rr := httptest.NewRecorder()
	h.Set(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if svc.lastUser != userID || svc.lastDate != "2026-10-18" || svc.lastPrayer != "fajr" || !svc.lastValue {
		t.Fatalf("unexpected call: %+v", svc)
	}

	var payload models.PrayerUpdate
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !payload.Value || payload.Prayer != "fajr" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestPrayerHandler_SetRequiresValue(t *testing.T) {
	svc := &stubPrayerService{}
	h := NewPrayerHandler(svc)

	req := newPrayerRequest(http.MethodPut, "/api/v1/prayers/2026-10-18/fajr", `{}`, uuid.New(),
		map[string]string{"date": "2026-10-18", "prayer": "fajr"})
	rr := httptest.NewRecorder()
	h.Set(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if svc.lastPrayer != "" {
		t.Fatalf("service should not be called without a value")
	}
}

func TestPrayerHandler_TodayAlias(t *testing.T) {
	svc := &stubPrayerService{}
	h := NewPrayerHandler(svc)

	req := newPrayerRequest(http.MethodPost, "/api/v1/prayers/today/asr/toggle", "", uuid.New(),
		map[string]string{"date": "today", "prayer": "asr"})
	rr := httptest.NewRecorder()
	h.Toggle(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if svc.lastDate != "2026-10-18" {
		t.Fatalf("expected today to resolve to 2026-10-18, got %q", svc.lastDate)
	}
}

func TestPrayerHandler_ValidationErrorMapsTo400(t *testing.T) {
	svc := &stubPrayerService{err: &services.ValidationError{Fields: map[string]string{"prayer": `unknown prayer "witr"`}}}
	h := NewPrayerHandler(svc)

	req := newPrayerRequest(http.MethodPost, "/api/v1/prayers/2026-10-18/witr/toggle", "", uuid.New(),
		map[string]string{"date": "2026-10-18", "prayer": "witr"})
	req.Header.Set("X-Request-ID", "req-1")
	rr := httptest.NewRecorder()
	h.Toggle(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}

	var payload models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Error.Code != "VALIDATION_ERROR" || payload.Error.Fields["prayer"] == "" {
		t.Fatalf("unexpected error payload: %+v", payload.Error)
	}
	if payload.Error.Message != `unknown prayer "witr"` {
		t.Fatalf("unexpected message: %q", payload.Error.Message)
	}
	if payload.Error.RequestID != "req-1" {
		t.Fatalf("expected request id to be echoed, got %q", payload.Error.RequestID)
	}
}

func TestPrayerHandler_Records(t *testing.T) {
	svc := &stubPrayerService{}
	h := NewPrayerHandler(svc)

	rr := httptest.NewRecorder()
	h.Records(rr, newPrayerRequest(http.MethodGet, "/api/v1/prayers/records?limit=14", "", uuid.New(), nil))
	if rr.Code != http.StatusOK || svc.lastLimit != 14 {
		t.Fatalf("expected recent listing with limit 14, got status %d limit %d", rr.Code, svc.lastLimit)
	}

	var payload models.RecordsResponse
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Records) != 1 || !payload.Records[0].Status["asr"] {
		t.Fatalf("unexpected records: %+v", payload.Records)
	}

	rr = httptest.NewRecorder()
	h.Records(rr, newPrayerRequest(http.MethodGet, "/api/v1/prayers/records?from=2026-10-12&to=2026-10-18", "", uuid.New(), nil))
	if rr.Code != http.StatusOK || svc.lastRange != [2]string{"2026-10-12", "2026-10-18"} {
		t.Fatalf("expected range listing, got status %d range %v", rr.Code, svc.lastRange)
	}

	rr = httptest.NewRecorder()
	h.Records(rr, newPrayerRequest(http.MethodGet, "/api/v1/prayers/records?limit=abc", "", uuid.New(), nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestPrayerHandler_HistoryDefaults(t *testing.T) {
	svc := &stubPrayerService{}
	h := NewPrayerHandler(svc)

	rr := httptest.NewRecorder()
	h.History(rr, newPrayerRequest(http.MethodGet, "/api/v1/prayers/history", "", uuid.New(), nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if svc.lastDays != defaultHistoryDays || svc.lastEnd != "" {
		t.Fatalf("unexpected history args: days=%d end=%q", svc.lastDays, svc.lastEnd)
	}

	rr = httptest.NewRecorder()
	h.History(rr, newPrayerRequest(http.MethodGet, "/api/v1/prayers/history?days=30&end=2026-10-01", "", uuid.New(), nil))
	if svc.lastDays != 30 || svc.lastEnd != "2026-10-01" {
		t.Fatalf("unexpected history args: days=%d end=%q", svc.lastDays, svc.lastEnd)
	}
}
