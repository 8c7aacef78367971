package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKey_StableAcrossTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)

	times := []time.Time{
		time.Date(2026, 3, 9, 0, 0, 0, 0, loc),
		time.Date(2026, 3, 9, 0, 30, 0, 0, loc),
		time.Date(2026, 3, 9, 12, 0, 0, 0, loc),
		time.Date(2026, 3, 9, 23, 59, 59, 999, loc),
	}
	for _, tm := range times {
		assert.Equal(t, "2026-03-09", RecordKey(tm), "time %s", tm)
		assert.Equal(t, RecordKey(tm), RecordKey(tm))
	}
}

func TestRecordKey_UsesLocalCalendarNotUTC(t *testing.T) {
	// 00:30 local in UTC+5 is still the previous day in UTC.
	loc := time.FixedZone("UTC+5", 5*60*60)
	tm := time.Date(2026, 3, 9, 0, 30, 0, 0, loc)

	assert.Equal(t, "2026-03-08", tm.UTC().Format(KeyLayout))
	assert.Equal(t, "2026-03-09", RecordKey(tm))
}

func TestRecordKey_StrictlyIncreasingForConsecutiveDays(t *testing.T) {
	day := time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)
	prev := RecordKey(day)
	for i := 1; i <= 400; i++ {
		next := RecordKey(DaysBack(day, -i))
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestFormatLabel(t *testing.T) {
	tm := time.Date(2026, 10, 18, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "Sunday, October 18, 2026", FormatLabel(tm))
}

func TestParseRecordKey(t *testing.T) {
	got, err := ParseRecordKey("2024-02-29", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "2024-2-29", "2023-02-29", "29-02-2024", "2024-02-29T00:00:00Z", "abcd-ef-gh"} {
		_, err := ParseRecordKey(bad, time.UTC)
		assert.Error(t, err, "key %q", bad)
		assert.False(t, ValidKey(bad))
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC-4", -4*60*60)
	now := time.Date(2026, 10, 18, 2, 0, 0, 0, time.UTC)

	today := Today(now, loc)
	assert.Equal(t, "2026-10-17", RecordKey(today))
	assert.Equal(t, 0, today.Hour())
}

func TestWindow(t *testing.T) {
	today := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	keys := WindowKeys(today, 4)
	assert.Equal(t, []string{"2026-03-02", "2026-03-01", "2026-02-28", "2026-02-27"}, keys)

	assert.Nil(t, Window(today, 0))
	assert.Len(t, Window(today, 30), 30)
}

func TestDaysBack_AcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)

	assert.Equal(t, "2026-03-08", RecordKey(DaysBack(day, 1)))
	assert.Equal(t, "2026-03-07", RecordKey(DaysBack(day, 2)))
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	_, err = LoadLocation("Not/AZone")
	assert.Error(t, err)
}
