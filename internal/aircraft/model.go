package aircraft

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"flightplanner/internal/flightplan"
)

// DefaultModel is stored when a profile is saved without a model name.
const DefaultModel = "Unknown"

// Profile is a stored aircraft performance profile, keyed by registration.
type Profile struct {
	ID           uuid.UUID
	Registration string
	Model        string
	TAS          float64 // knots
	GPH          float64 // gallons per hour
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Aircraft converts the profile to the value the planner consumes.
func (p *Profile) Aircraft() flightplan.Aircraft {
	return flightplan.Aircraft{
		Registration: p.Registration,
		Model:        p.Model,
		TAS:          p.TAS,
		GPH:          p.GPH,
	}
}

// NormalizeRegistration upper-cases and trims a registration and checks
// that it looks like a civil registration mark (2-16 letters, digits or
// dashes, not starting or ending with a dash).
func NormalizeRegistration(reg string) (string, error) {
	reg = strings.ToUpper(strings.TrimSpace(reg))
	if len(reg) < 2 || len(reg) > 16 {
		return "", ErrInvalidRegistration
	}
	if reg[0] == '-' || reg[len(reg)-1] == '-' {
		return "", ErrInvalidRegistration
	}
	for _, r := range reg {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
			return "", ErrInvalidRegistration
		}
	}
	return reg, nil
}

// ValidatePerformance rejects figures the planner cannot use.
func ValidatePerformance(tas, gph float64) error {
	if !(tas > 0) || math.IsInf(tas, 0) {
		return ErrInvalidPerformance
	}
	if !(gph >= 0) || math.IsInf(gph, 0) {
		return ErrInvalidPerformance
	}
	return nil
}
