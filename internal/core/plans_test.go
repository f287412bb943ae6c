package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entitlement-backend-go/internal/models"
)

func TestPlanTableLookup(t *testing.T) {
	table := NewPlanTable("P-MONTH", "P-YEAR")

	assert.Equal(t, models.PlanMonthly, table.PlanFor("P-MONTH"))
	assert.Equal(t, models.PlanYearly, table.PlanFor("P-YEAR"))
	assert.Equal(t, models.PlanUnknown, table.PlanFor("P-SOMETHING-ELSE"))
	assert.Equal(t, models.PlanUnknown, table.PlanFor(""))
}

func TestPlanTableIgnoresEmptyIDs(t *testing.T) {
	table := NewPlanTable("", "")
	assert.Equal(t, models.PlanUnknown, table.PlanFor(""))
}

func TestExpiryForIncludesGrace(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	monthly := expiryFor(models.PlanMonthly, now)
	require.NotNil(t, monthly)
	assert.Equal(t, now.Add(30*24*time.Hour+48*time.Hour), *monthly)

	yearly := expiryFor(models.PlanYearly, now)
	require.NotNil(t, yearly)
	assert.Equal(t, now.Add(365*24*time.Hour+48*time.Hour), *yearly)

	// Unknown plans get no offline window: online re-validation only.
	assert.Nil(t, expiryFor(models.PlanUnknown, now))
}
