package storage

import (
	"context"
	"fmt"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// ProcedureRepository provides data access for billable procedures.
type ProcedureRepository struct {
	BaseRepository
}

// NewProcedureRepository creates a new procedure repository.
func NewProcedureRepository(db *DB) *ProcedureRepository {
	return &ProcedureRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// List retrieves all procedures, newest date first.
func (r *ProcedureRepository) List(ctx context.Context) ([]models.Procedure, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, date, time, hospital, doctor_id, doctor_name, procedure_type,
		       payment_type, cost, commission, technician, notes, status
		FROM procedures
		ORDER BY date DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying procedures: %w", err)
	}
	defer rows.Close()

	procedures := []models.Procedure{}
	for rows.Next() {
		var p models.Procedure
		if err := rows.Scan(
			&p.ID, &p.Date, &p.Time, &p.Hospital, &p.DoctorID, &p.DoctorName, &p.ProcedureType,
			&p.PaymentType, &p.Cost, &p.Commission, &p.Technician, &p.Notes, &p.Status,
		); err != nil {
			return nil, fmt.Errorf("scanning procedure: %w", err)
		}
		procedures = append(procedures, p)
	}

	return procedures, rows.Err()
}

// Upsert inserts the procedure or overwrites the existing one with the same ID.
func (r *ProcedureRepository) Upsert(ctx context.Context, p *models.Procedure) error {
	if p.ID == "" {
		return fmt.Errorf("procedure id is required")
	}
	if p.Status == "" {
		p.Status = models.ProcedureScheduled
	}

	now := r.Now()
	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO procedures (
			id, date, time, hospital, doctor_id, doctor_name, procedure_type,
			payment_type, cost, commission, technician, notes, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			time = excluded.time,
			hospital = excluded.hospital,
			doctor_id = excluded.doctor_id,
			doctor_name = excluded.doctor_name,
			procedure_type = excluded.procedure_type,
			payment_type = excluded.payment_type,
			cost = excluded.cost,
			commission = excluded.commission,
			technician = excluded.technician,
			notes = excluded.notes,
			status = excluded.status,
			updated_at = excluded.updated_at
	`,
		p.ID, p.Date, p.Time, p.Hospital, p.DoctorID, p.DoctorName, p.ProcedureType,
		string(p.PaymentType), p.Cost, p.Commission, p.Technician, p.Notes, string(p.Status), now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting procedure: %w", err)
	}
	return nil
}

// Delete removes a procedure by ID.
func (r *ProcedureRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM procedures WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting procedure: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("procedure %s: %w", id, ErrNotFound)
	}
	return nil
}
