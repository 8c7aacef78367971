package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"namaz-tracker/internal/prayers"
)

// PrayerRepo stores one JSONB document per (user, day). Writes only ever
// merge a single key into the document.
type PrayerRepo struct {
	pool *pgxpool.Pool
}

func NewPrayerRepo(pool *pgxpool.Pool) *PrayerRepo {
	return &PrayerRepo{pool: pool}
}

const recordColumns = "day, prayers, updated_at"

func scanRecord(row pgx.Row) (*prayers.Record, error) {
	var (
		day       string
		raw       []byte
		updatedAt time.Time
	)
	if err := row.Scan(&day, &raw, &updatedAt); err != nil {
		return nil, err
	}
	status, err := prayers.DecodeStatus(raw)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", day, err)
	}
	return &prayers.Record{DateID: day, Status: status, LastModified: updatedAt}, nil
}

// Get returns the record for dateID, or nil when none was ever written.
func (r *PrayerRepo) Get(ctx context.Context, userID uuid.UUID, dateID string) (*prayers.Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		"SELECT "+recordColumns+" FROM prayer_records WHERE user_id = $1 AND day = $2",
		userID, dateID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// SetField merges {name: value} into the day's document, creating it on
// first write. Sibling keys are left untouched.
func (r *PrayerRepo) SetField(ctx context.Context, userID uuid.UUID, dateID, name string, value bool) (*prayers.Record, error) {
	return scanRecord(r.pool.QueryRow(ctx, `
		INSERT INTO prayer_records (user_id, day, prayers, updated_at)
		VALUES ($1, $2, jsonb_build_object($3::text, $4::boolean), NOW())
		ON CONFLICT (user_id, day) DO UPDATE
		SET prayers = prayer_records.prayers || jsonb_build_object($3::text, $4::boolean),
			updated_at = NOW()
		RETURNING `+recordColumns,
		userID, dateID, name, value,
	))
}

// Flip inverts name in a single statement, so the new value is always
// derived from the stored one.
func (r *PrayerRepo) Flip(ctx context.Context, userID uuid.UUID, dateID, name string) (*prayers.Record, error) {
	return scanRecord(r.pool.QueryRow(ctx, `
		INSERT INTO prayer_records (user_id, day, prayers, updated_at)
		VALUES ($1, $2, jsonb_build_object($3::text, TRUE), NOW())
		ON CONFLICT (user_id, day) DO UPDATE
		SET prayers = prayer_records.prayers || jsonb_build_object(
				$3::text,
				NOT COALESCE(prayer_records.prayers -> $3::text = 'true'::jsonb, FALSE)
			),
			updated_at = NOW()
		RETURNING `+recordColumns,
		userID, dateID, name,
	))
}

// ListRecent returns at most limit records, most recently modified first.
func (r *PrayerRepo) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]prayers.Record, error) {
	return r.list(ctx,
		"SELECT "+recordColumns+" FROM prayer_records WHERE user_id = $1 ORDER BY updated_at DESC LIMIT $2",
		userID, limit,
	)
}

// ListRange returns every record with from <= day <= to, newest day first.
// Keys are fixed-width dates, so text comparison is chronological.
func (r *PrayerRepo) ListRange(ctx context.Context, userID uuid.UUID, from, to string) ([]prayers.Record, error) {
	return r.list(ctx,
		"SELECT "+recordColumns+" FROM prayer_records WHERE user_id = $1 AND day BETWEEN $2 AND $3 ORDER BY day DESC",
		userID, from, to,
	)
}

func (r *PrayerRepo) list(ctx context.Context, query string, args ...any) ([]prayers.Record, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]prayers.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
