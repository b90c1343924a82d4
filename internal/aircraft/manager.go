package aircraft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5/pgconn"

	"flightplanner/internal/flightplan"
)

// Domain errors returned by the Manager.
var (
	ErrNotFound            = errors.New("aircraft profile not found")
	ErrInvalidRegistration = errors.New("registration must be 2-16 letters, digits or dashes")
	ErrInvalidPerformance  = errors.New("tas must be positive and gph must not be negative")
)

// pgCheckViolation is the SQLSTATE for a failed CHECK constraint.
const pgCheckViolation = "23514"

// Manager handles business logic for aircraft profiles.
// It coordinates operations, translates datastore errors to domain errors
// and keeps recently used profiles in an LRU cache.
type Manager struct {
	ds    *Datastore
	cache *lru.Cache[string, Profile]
}

// NewManager creates a new aircraft profile manager. A cacheSize of zero
// or less disables the cache.
func NewManager(ds *Datastore, cacheSize int) (*Manager, error) {
	m := &Manager{ds: ds}
	if cacheSize > 0 {
		c, err := lru.New[string, Profile](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create aircraft cache: %w", err)
		}
		m.cache = c
	}
	return m, nil
}

// Get retrieves a profile by registration.
func (m *Manager) Get(ctx context.Context, registration string) (*Profile, error) {
	reg, err := NormalizeRegistration(registration)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		if p, ok := m.cache.Get(reg); ok {
			return &p, nil
		}
	}

	p, err := m.ds.GetByRegistration(ctx, reg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get aircraft profile: %w", err)
	}

	m.remember(p)
	return p, nil
}

// Resolve returns the planner aircraft stored under registration.
func (m *Manager) Resolve(ctx context.Context, registration string) (flightplan.Aircraft, error) {
	p, err := m.Get(ctx, registration)
	if err != nil {
		return flightplan.Aircraft{}, err
	}
	return p.Aircraft(), nil
}

// List returns a page of profiles. Limit defaults to 20 and is capped at 100.
func (m *Manager) List(ctx context.Context, limit, offset int) ([]*Profile, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	profiles, err := m.ds.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list aircraft profiles: %w", err)
	}
	return profiles, nil
}

// Upsert creates or replaces the profile for registration.
func (m *Manager) Upsert(ctx context.Context, registration, model string, tas, gph float64) (*Profile, error) {
	reg, err := NormalizeRegistration(registration)
	if err != nil {
		return nil, err
	}
	if err := ValidatePerformance(tas, gph); err != nil {
		return nil, err
	}

	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}

	p := &Profile{Registration: reg, Model: model, TAS: tas, GPH: gph}
	if err := m.ds.Upsert(ctx, p); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
			return nil, ErrInvalidPerformance
		}
		return nil, fmt.Errorf("failed to save aircraft profile: %w", err)
	}

	m.remember(p)
	return p, nil
}

// Delete removes the profile for registration.
func (m *Manager) Delete(ctx context.Context, registration string) error {
	reg, err := NormalizeRegistration(registration)
	if err != nil {
		return err
	}

	rowsAffected, err := m.ds.Delete(ctx, reg)
	if err != nil {
		return fmt.Errorf("failed to delete aircraft profile: %w", err)
	}

	if m.cache != nil {
		m.cache.Remove(reg)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Manager) remember(p *Profile) {
	if m.cache != nil {
		m.cache.Add(p.Registration, *p)
	}
}
