package storage

import (
	"context"
	"fmt"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// TimeOffRepository provides data access for executive absences.
type TimeOffRepository struct {
	BaseRepository
}

// NewTimeOffRepository creates a new time-off repository.
func NewTimeOffRepository(db *DB) *TimeOffRepository {
	return &TimeOffRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// List retrieves all absences, most recent start date first.
func (r *TimeOffRepository) List(ctx context.Context) ([]models.TimeOffEvent, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, executive, start_date, end_date, duration, reason, notes
		FROM time_off
		ORDER BY start_date DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying time off: %w", err)
	}
	defer rows.Close()

	events := []models.TimeOffEvent{}
	for rows.Next() {
		var t models.TimeOffEvent
		if err := rows.Scan(&t.ID, &t.Executive, &t.StartDate, &t.EndDate, &t.Duration, &t.Reason, &t.Notes); err != nil {
			return nil, fmt.Errorf("scanning time off: %w", err)
		}
		events = append(events, t)
	}

	return events, rows.Err()
}

// Upsert inserts the absence or overwrites the existing one with the same ID.
func (r *TimeOffRepository) Upsert(ctx context.Context, t *models.TimeOffEvent) error {
	if t.ID == "" {
		return fmt.Errorf("time off id is required")
	}

	now := r.Now()
	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO time_off (id, executive, start_date, end_date, duration, reason, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			executive = excluded.executive,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			duration = excluded.duration,
			reason = excluded.reason,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`,
		t.ID, t.Executive, t.StartDate, t.EndDate, string(t.Duration), string(t.Reason), t.Notes, now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting time off: %w", err)
	}
	return nil
}

// Delete removes an absence by ID.
func (r *TimeOffRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM time_off WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting time off: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("time off %s: %w", id, ErrNotFound)
	}
	return nil
}
