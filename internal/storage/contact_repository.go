package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// ContactRepository provides document-style access to directory contacts.
// Each row holds the whole contact, visits and schedule included.
type ContactRepository struct {
	BaseRepository
}

// NewContactRepository creates a new contact repository.
func NewContactRepository(db *DB) *ContactRepository {
	return &ContactRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const upsertContactSQL = `
	INSERT INTO contacts (id, category, executive, name, document, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		category = excluded.category,
		executive = excluded.executive,
		name = excluded.name,
		document = excluded.document,
		updated_at = excluded.updated_at
`

// List retrieves all contacts ordered by name.
func (r *ContactRepository) List(ctx context.Context) ([]models.Contact, error) {
	rows, err := r.DB().QueryContext(ctx, `SELECT document FROM contacts ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		contact, err := decodeContact(doc)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}

	return contacts, rows.Err()
}

// GetByID retrieves a contact by its ID.
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	var doc string
	err := r.DB().QueryRowContext(ctx, `SELECT document FROM contacts WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying contact: %w", err)
	}

	contact, err := decodeContact(doc)
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// Upsert inserts the contact or overwrites every field of the existing one.
func (r *ContactRepository) Upsert(ctx context.Context, contact *models.Contact) error {
	if err := r.upsert(ctx, r.DB(), contact); err != nil {
		return fmt.Errorf("upserting contact: %w", err)
	}
	return nil
}

// BulkUpsert upserts a batch of contacts in one transaction and returns how many
// rows were written.
func (r *ContactRepository) BulkUpsert(ctx context.Context, contacts []models.Contact) (int, error) {
	count := 0
	err := r.Transaction(func(tx *sql.Tx) error {
		for i := range contacts {
			if err := r.upsert(ctx, tx, &contacts[i]); err != nil {
				return fmt.Errorf("upserting contact %s: %w", contacts[i].ID, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ContactRepository) upsert(ctx context.Context, q Queryable, contact *models.Contact) error {
	if contact.ID == "" {
		return fmt.Errorf("contact id is required")
	}
	if contact.Category == "" {
		contact.Category = models.CategoryMedico
	}
	if contact.Classification == "" {
		contact.Classification = models.ClassificationC
	}
	if contact.Visits == nil {
		contact.Visits = []models.Visit{}
	}
	if contact.Schedule == nil {
		contact.Schedule = []models.ScheduleSlot{}
	}

	doc, err := json.Marshal(contact)
	if err != nil {
		return fmt.Errorf("encoding contact: %w", err)
	}

	now := r.Now()
	_, err = q.ExecContext(ctx, upsertContactSQL,
		contact.ID, string(contact.Category), contact.Executive, contact.Name, string(doc), now, now,
	)
	return err
}

// Delete removes a contact by ID. Its visits go with it.
func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteByCategory removes every contact of a category and returns how many went.
func (r *ContactRepository) DeleteByCategory(ctx context.Context, category string) (int64, error) {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM contacts WHERE category = ?", strings.ToUpper(category))
	if err != nil {
		return 0, fmt.Errorf("deleting contacts by category: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of stored contacts.
func (r *ContactRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM contacts").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting contacts: %w", err)
	}
	return n, nil
}

func decodeContact(doc string) (models.Contact, error) {
	var contact models.Contact
	if err := json.Unmarshal([]byte(doc), &contact); err != nil {
		return models.Contact{}, fmt.Errorf("decoding contact document: %w", err)
	}
	if contact.Visits == nil {
		contact.Visits = []models.Visit{}
	}
	return contact, nil
}
