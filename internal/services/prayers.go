package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"namaz-tracker/internal/calendar"
	"namaz-tracker/internal/models"
	"namaz-tracker/internal/prayers"
)

type prayerStore interface {
	Get(ctx context.Context, userID uuid.UUID, dateID string) (*prayers.Record, error)
	SetField(ctx context.Context, userID uuid.UUID, dateID, name string, value bool) (*prayers.Record, error)
	Flip(ctx context.Context, userID uuid.UUID, dateID, name string) (*prayers.Record, error)
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]prayers.Record, error)
	ListRange(ctx context.Context, userID uuid.UUID, from, to string) ([]prayers.Record, error)
}

const maxRecentRecords = 500

type PrayerService struct {
	repo    prayerStore
	events  eventPublisher
	set     prayers.Set
	loc     *time.Location
	maxDays int
	now     func() time.Time
}

func NewPrayerService(repo prayerStore, events eventPublisher, set prayers.Set, loc *time.Location, maxDays int) *PrayerService {
	if loc == nil {
		loc = time.Local
	}
	return &PrayerService{
		repo:    repo,
		events:  events,
		set:     set,
		loc:     loc,
		maxDays: maxDays,
		now:     time.Now,
	}
}

func (s *PrayerService) Items() []string {
	return s.set.Names()
}

// Today returns today's record key in the service's time zone.
func (s *PrayerService) Today() string {
	return calendar.RecordKey(calendar.Today(s.now(), s.loc))
}

func (s *PrayerService) Get(ctx context.Context, userID uuid.UUID, dateID string) (*models.RecordResponse, error) {
	day, err := s.parseDate(dateID)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.Get(ctx, userID, dateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	resp := &models.RecordResponse{
		Date:    dateID,
		Label:   calendar.FormatLabel(day),
		Prayers: rec.Full(s.set),
		Exists:  rec != nil,
	}
	if rec != nil {
		modified := rec.LastModified
		resp.LastModified = &modified
	}
	return resp, nil
}

// SetField merges a single value into the day's record.
func (s *PrayerService) SetField(ctx context.Context, userID uuid.UUID, dateID, name string, value bool) (*models.PrayerUpdate, error) {
	name, err := s.validateField(dateID, name)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.SetField(ctx, userID, dateID, name, value)
	if err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}
	return s.updated(ctx, userID, rec, name), nil
}

// Toggle inverts the stored value of name and returns the new value.
func (s *PrayerService) Toggle(ctx context.Context, userID uuid.UUID, dateID, name string) (*models.PrayerUpdate, error) {
	name, err := s.validateField(dateID, name)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.Flip(ctx, userID, dateID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle record: %w", err)
	}
	return s.updated(ctx, userID, rec, name), nil
}

func (s *PrayerService) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]prayers.Record, error) {
	if limit <= 0 || limit > maxRecentRecords {
		return nil, &ValidationError{Fields: map[string]string{
			"limit": fmt.Sprintf("limit must be between 1 and %d", maxRecentRecords),
		}}
	}
	records, err := s.repo.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

func (s *PrayerService) Range(ctx context.Context, userID uuid.UUID, from, to string) ([]prayers.Record, error) {
	fieldErrors := make(map[string]string)
	if !calendar.ValidKey(from) {
		fieldErrors["from"] = "from must be a YYYY-MM-DD date"
	}
	if !calendar.ValidKey(to) {
		fieldErrors["to"] = "to must be a YYYY-MM-DD date"
	}
	if len(fieldErrors) == 0 && from > to {
		fieldErrors["from"] = "from must not be after to"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	records, err := s.repo.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// History reconciles the trailing window of days ending at end (today when
// empty) against the stored records of that window.
func (s *PrayerService) History(ctx context.Context, userID uuid.UUID, days int, end string) (*models.HistoryResponse, error) {
	if days < 1 || days > s.maxDays {
		return nil, &ValidationError{Fields: map[string]string{
			"days": fmt.Sprintf("days must be between 1 and %d", s.maxDays),
		}}
	}

	endDay := calendar.Today(s.now(), s.loc)
	if end != "" {
		parsed, err := s.parseDate(end)
		if err != nil {
			return nil, err
		}
		endDay = parsed
	}

	from := calendar.RecordKey(calendar.DaysBack(endDay, days-1))
	to := calendar.RecordKey(endDay)
	records, err := s.repo.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	h := prayers.Reconcile(s.set, endDay, days, prayers.Index(records))
	resp := &models.HistoryResponse{
		Days:  days,
		End:   to,
		Cards: h.Days,
		Empty: h.Empty,
	}
	if h.Empty {
		resp.Message = "No prayer records found for the selected period."
	} else {
		resp.Message = fmt.Sprintf("History for last %d days loaded.", days)
	}
	return resp, nil
}

// Stats summarizes the trailing window of days ending today.
func (s *PrayerService) Stats(ctx context.Context, userID uuid.UUID, days int) (*prayers.Stats, error) {
	h, err := s.History(ctx, userID, days, "")
	if err != nil {
		return nil, err
	}
	st := prayers.Summarize(s.set, prayers.History{Days: h.Cards, Empty: h.Empty})
	return &st, nil
}

func (s *PrayerService) parseDate(dateID string) (time.Time, error) {
	day, err := calendar.ParseRecordKey(dateID, s.loc)
	if err != nil {
		return time.Time{}, &ValidationError{Fields: map[string]string{"date": "date must be a YYYY-MM-DD date"}}
	}
	return day, nil
}

func (s *PrayerService) validateField(dateID, name string) (string, error) {
	fieldErrors := make(map[string]string)
	if !calendar.ValidKey(dateID) {
		fieldErrors["date"] = "date must be a YYYY-MM-DD date"
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if !s.set.Has(name) {
		fieldErrors["prayer"] = fmt.Sprintf("unknown prayer %q", name)
	}
	if len(fieldErrors) > 0 {
		return "", &ValidationError{Fields: fieldErrors}
	}
	return name, nil
}

func (s *PrayerService) updated(ctx context.Context, userID uuid.UUID, rec *prayers.Record, name string) *models.PrayerUpdate {
	value := rec.Done(name)
	update := &models.PrayerUpdate{
		Date:         rec.DateID,
		Prayer:       name,
		Value:        value,
		LastModified: rec.LastModified,
	}

	event := models.SessionEvent{Type: models.EventRecord, Date: rec.DateID, Prayer: name, Value: &value}
	if err := s.events.Publish(ctx, userID, event); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to publish record event")
	}
	return update
}
