package store

import (
	"database/sql"
	"errors"
	"time"
)

// Binding overrides the label a pose produces.
type Binding struct {
	Pose      string
	Label     string
	UpdatedAt time.Time
}

// BindingRepository provides CRUD operations for bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

// Set inserts or replaces the binding for b.Pose.
func (r *BindingRepository) Set(b *Binding) error {
	b.UpdatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO bindings (pose, label, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(pose) DO UPDATE SET label = excluded.label, updated_at = excluded.updated_at`,
		b.Pose, b.Label, b.UpdatedAt,
	)
	return err
}

// Get retrieves the binding for a pose.
func (r *BindingRepository) Get(pose string) (*Binding, error) {
	b := &Binding{}
	err := r.db.QueryRow(
		`SELECT pose, label, updated_at FROM bindings WHERE pose = ?`,
		pose,
	).Scan(&b.Pose, &b.Label, &b.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// List retrieves all bindings ordered by pose.
func (r *BindingRepository) List() ([]*Binding, error) {
	rows, err := r.db.Query(`SELECT pose, label, updated_at FROM bindings ORDER BY pose`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b := &Binding{}
		if err := rows.Scan(&b.Pose, &b.Label, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// Delete removes the binding for a pose.
// Returns ErrNotFound if no binding exists.
func (r *BindingRepository) Delete(pose string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE pose = ?`, pose)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
