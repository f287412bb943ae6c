package core

import (
	"time"

	"entitlement-backend-go/internal/models"
)

// Offline validity windows per plan. The grace extension tolerates client
// clock drift; it only ever extends the window, never shortens it.
const (
	monthlyValidity = 30 * 24 * time.Hour
	yearlyValidity  = 365 * 24 * time.Hour
	expiryGrace     = 48 * time.Hour
)

// PlanTable maps provider plan ids to billing terms. Ids differ between the
// provider's sandbox and live environments, so the table is built from
// config at startup.
type PlanTable struct {
	byID map[string]models.Plan
}

// NewPlanTable builds the plan id lookup. Empty ids are ignored.
func NewPlanTable(monthlyID, yearlyID string) *PlanTable {
	byID := make(map[string]models.Plan, 2)
	if monthlyID != "" {
		byID[monthlyID] = models.PlanMonthly
	}
	if yearlyID != "" {
		byID[yearlyID] = models.PlanYearly
	}
	return &PlanTable{byID: byID}
}

// PlanFor resolves a provider plan id. Unknown ids map to PlanUnknown.
func (t *PlanTable) PlanFor(planID string) models.Plan {
	if p, ok := t.byID[planID]; ok {
		return p
	}
	return models.PlanUnknown
}

// expiryFor computes the offline expiry instant for an active entitlement.
// Unknown plans get no expiry: the client then relies on online
// re-validation only.
func expiryFor(plan models.Plan, now time.Time) *time.Time {
	var validity time.Duration
	switch plan {
	case models.PlanMonthly:
		validity = monthlyValidity
	case models.PlanYearly:
		validity = yearlyValidity
	default:
		return nil
	}
	exp := now.Add(validity + expiryGrace)
	return &exp
}
