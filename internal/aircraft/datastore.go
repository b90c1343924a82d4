// Package aircraft is the optional registry of aircraft performance
// profiles that flight-plan requests may refer to by registration.
package aircraft

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Datastore handles persistence operations for aircraft profiles.
// It performs only database operations and returns raw errors.
// Business logic and error translation belong in the Manager.
type Datastore struct {
	db *sql.DB
}

// NewDatastore creates a new aircraft profile datastore.
func NewDatastore(db *sql.DB) *Datastore {
	return &Datastore{db: db}
}

// Upsert inserts a profile or replaces the performance figures of the
// existing profile with the same registration. The stored ID and
// timestamps are written back into p.
func (ds *Datastore) Upsert(ctx context.Context, p *Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	query := `
		INSERT INTO aircraft_profiles (id, registration, model, tas, gph)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (registration) DO UPDATE
		SET model = EXCLUDED.model, tas = EXCLUDED.tas, gph = EXCLUDED.gph, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	return ds.db.QueryRowContext(ctx, query,
		p.ID, p.Registration, p.Model, p.TAS, p.GPH,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByRegistration retrieves a profile by its registration.
// Returns sql.ErrNoRows if not found.
func (ds *Datastore) GetByRegistration(ctx context.Context, registration string) (*Profile, error) {
	query := `
		SELECT id, registration, model, tas, gph, created_at, updated_at
		FROM aircraft_profiles
		WHERE registration = $1`

	p := &Profile{}
	err := ds.db.QueryRowContext(ctx, query, registration).Scan(
		&p.ID, &p.Registration, &p.Model, &p.TAS, &p.GPH, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// List returns profiles ordered by registration.
func (ds *Datastore) List(ctx context.Context, limit, offset int) ([]*Profile, error) {
	query := `
		SELECT id, registration, model, tas, gph, created_at, updated_at
		FROM aircraft_profiles
		ORDER BY registration
		LIMIT $1 OFFSET $2`

	rows, err := ds.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var profiles []*Profile
	for rows.Next() {
		p := &Profile{}
		if err := rows.Scan(
			&p.ID, &p.Registration, &p.Model, &p.TAS, &p.GPH, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Delete removes a profile by registration.
// Returns rows affected count for caller to interpret.
func (ds *Datastore) Delete(ctx context.Context, registration string) (int64, error) {
	query := `DELETE FROM aircraft_profiles WHERE registration = $1`

	result, err := ds.db.ExecContext(ctx, query, registration)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
