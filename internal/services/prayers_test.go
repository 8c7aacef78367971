package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namaz-tracker/internal/prayers"
)

type memoryPrayerStore struct {
	records   map[string]*prayers.Record
	rangeArgs [2]string
	failWrite error
}

func newMemoryPrayerStore() *memoryPrayerStore {
	return &memoryPrayerStore{records: map[string]*prayers.Record{}}
}

func (s *memoryPrayerStore) Get(_ context.Context, _ uuid.UUID, dateID string) (*prayers.Record, error) {
	rec, ok := s.records[dateID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *memoryPrayerStore) SetField(_ context.Context, _ uuid.UUID, dateID, name string, value bool) (*prayers.Record, error) {
	if s.failWrite != nil {
		return nil, s.failWrite
	}
	rec, ok := s.records[dateID]
	if !ok {
		rec = &prayers.Record{DateID: dateID, Status: map[string]bool{}}
		s.records[dateID] = rec
	}
	rec.Status[name] = value
	rec.LastModified = time.Now()
	cp := *rec
	return &cp, nil
}

func (s *memoryPrayerStore) Flip(ctx context.Context, userID uuid.UUID, dateID, name string) (*prayers.Record, error) {
	current, _ := s.Get(ctx, userID, dateID)
	return s.SetField(ctx, userID, dateID, name, !current.Done(name))
}

func (s *memoryPrayerStore) ListRecent(_ context.Context, _ uuid.UUID, limit int) ([]prayers.Record, error) {
	out := []prayers.Record{}
	for _, r := range s.records {
		if len(out) == limit {
			break
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *memoryPrayerStore) ListRange(_ context.Context, _ uuid.UUID, from, to string) ([]prayers.Record, error) {
	s.rangeArgs = [2]string{from, to}
	out := []prayers.Record{}
	for key, r := range s.records {
		if key >= from && key <= to {
			out = append(out, *r)
		}
	}
	return out, nil
}

func newTestPrayerService(store *memoryPrayerStore) (*PrayerService, *recordingPublisher) {
	events := &recordingPublisher{}
	svc := NewPrayerService(store, events, prayers.Default(), time.UTC, 90)
	svc.now = func() time.Time { return time.Date(2026, 10, 18, 21, 30, 0, 0, time.UTC) }
	return svc, events
}

func TestPrayerServiceGetAbsentRecord(t *testing.T) {
	svc, _ := newTestPrayerService(newMemoryPrayerStore())

	resp, err := svc.Get(context.Background(), uuid.New(), "2026-10-18")
	require.NoError(t, err)
	assert.False(t, resp.Exists)
	assert.Nil(t, resp.LastModified)
	assert.Equal(t, "Sunday, October 18, 2026", resp.Label)
	assert.Len(t, resp.Prayers, 5)
	for name, done := range resp.Prayers {
		assert.False(t, done, name)
	}
}

func TestPrayerServiceSetFieldMergesAndPublishes(t *testing.T) {
	store := newMemoryPrayerStore()
	svc, events := newTestPrayerService(store)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.SetField(ctx, userID, "2026-10-18", "Fajr", true)
	require.NoError(t, err)
	update, err := svc.SetField(ctx, userID, "2026-10-18", "isha", true)
	require.NoError(t, err)
	assert.Equal(t, "isha", update.Prayer)
	assert.True(t, update.Value)

	resp, err := svc.Get(ctx, userID, "2026-10-18")
	require.NoError(t, err)
	assert.True(t, resp.Prayers["fajr"])
	assert.True(t, resp.Prayers["isha"])
	assert.False(t, resp.Prayers["asr"])

	require.Len(t, events.events, 2)
	assert.Equal(t, "record", events.events[1].event.Type)
	assert.Equal(t, "isha", events.events[1].event.Prayer)
	require.NotNil(t, events.events[1].event.Value)
	assert.True(t, *events.events[1].event.Value)
}

func TestPrayerServiceToggleTwiceRestores(t *testing.T) {
	store := newMemoryPrayerStore()
	svc, _ := newTestPrayerService(store)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Toggle(ctx, userID, "2026-10-18", "asr")
	require.NoError(t, err)
	assert.True(t, first.Value)

	second, err := svc.Toggle(ctx, userID, "2026-10-18", "asr")
	require.NoError(t, err)
	assert.False(t, second.Value)
}

func TestPrayerServiceRejectsBadInput(t *testing.T) {
	svc, _ := newTestPrayerService(newMemoryPrayerStore())
	ctx := context.Background()
	userID := uuid.New()

	var vErr *ValidationError

	_, err := svc.SetField(ctx, userID, "2026-13-40", "fajr", true)
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "date")

	_, err = svc.Toggle(ctx, userID, "2026-10-18", "witr")
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "prayer")

	_, err = svc.Range(ctx, userID, "2026-10-18", "2026-10-01")
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "from")

	_, err = svc.Recent(ctx, userID, 0)
	require.True(t, errors.As(err, &vErr))

	_, err = svc.History(ctx, userID, 91, "")
	require.True(t, errors.As(err, &vErr))
}

func TestPrayerServiceWriteFailureIsWrapped(t *testing.T) {
	store := newMemoryPrayerStore()
	store.failWrite = errors.New("connection reset")
	svc, events := newTestPrayerService(store)

	_, err := svc.SetField(context.Background(), uuid.New(), "2026-10-18", "fajr", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, events.events)
}

func TestPrayerServiceHistory(t *testing.T) {
	store := newMemoryPrayerStore()
	svc, _ := newTestPrayerService(store)
	ctx := context.Background()
	userID := uuid.New()

	empty, err := svc.History(ctx, userID, 7, "")
	require.NoError(t, err)
	assert.True(t, empty.Empty)
	assert.Equal(t, "No prayer records found for the selected period.", empty.Message)
	assert.Equal(t, [2]string{"2026-10-12", "2026-10-18"}, store.rangeArgs)
	require.Len(t, empty.Cards, 7)

	_, err = svc.SetField(ctx, userID, "2026-10-15", "fajr", true)
	require.NoError(t, err)

	h, err := svc.History(ctx, userID, 7, "")
	require.NoError(t, err)
	assert.False(t, h.Empty)
	assert.Equal(t, "History for last 7 days loaded.", h.Message)
	assert.Equal(t, "2026-10-18", h.End)
	assert.Equal(t, "2026-10-15", h.Cards[3].DateID)
	fajr, ok := h.Cards[3].Item("fajr")
	require.True(t, ok)
	assert.True(t, fajr.Done)

	shifted, err := svc.History(ctx, userID, 3, "2026-10-14")
	require.NoError(t, err)
	assert.True(t, shifted.Empty)
	assert.Equal(t, [2]string{"2026-10-12", "2026-10-14"}, store.rangeArgs)
}

func TestPrayerServiceToday(t *testing.T) {
	svc, _ := newTestPrayerService(newMemoryPrayerStore())
	assert.Equal(t, "2026-10-18", svc.Today())

	svc.loc = time.FixedZone("UTC+5", 5*3600)
	assert.Equal(t, "2026-10-19", svc.Today())
}

func TestPrayerServiceStats(t *testing.T) {
	store := newMemoryPrayerStore()
	svc, _ := newTestPrayerService(store)
	ctx := context.Background()
	userID := uuid.New()

	for _, day := range []string{"2026-10-17", "2026-10-16"} {
		for _, name := range prayers.DefaultNames {
			_, err := svc.SetField(ctx, userID, day, name, true)
			require.NoError(t, err)
		}
	}
	_, err := svc.SetField(ctx, userID, "2026-10-18", "fajr", true)
	require.NoError(t, err)

	st, err := svc.Stats(ctx, userID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, st.Days)
	assert.Equal(t, 2, st.Streak)
	assert.Equal(t, 2, st.FullDays)
	assert.Equal(t, 3, st.Completed["fajr"])
	assert.Equal(t, 2, st.Completed["isha"])

	_, err = svc.Stats(ctx, userID, 0)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}
