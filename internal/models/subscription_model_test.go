package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyToRetainsKnownFields(t *testing.T) {
	rec := SubscriptionRecord{SubscriptionID: "sub_1"}

	first := SubscriptionUpdate{Email: "a@x.com", Status: StatusApproved, PlanID: "P-1"}
	first.ApplyTo(&rec)

	assert.Equal(t, "a@x.com", rec.Email)
	assert.Equal(t, StatusApproved, rec.Status)
	assert.Equal(t, "P-1", rec.PlanID)

	// A later update without an email overwrites the status but must never
	// unset the previously bound email.
	second := SubscriptionUpdate{Status: StatusActive}
	second.ApplyTo(&rec)

	assert.Equal(t, "a@x.com", rec.Email)
	assert.Equal(t, StatusActive, rec.Status)
	assert.Equal(t, "P-1", rec.PlanID)
}

func TestApplyToOverwritesTimesOnlyWhenPresent(t *testing.T) {
	earlier := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	rec := SubscriptionRecord{SubscriptionID: "sub_1", NextBillingTime: &earlier}

	SubscriptionUpdate{Status: StatusActive}.ApplyTo(&rec)
	assert.Equal(t, earlier, *rec.NextBillingTime)

	SubscriptionUpdate{NextBillingTime: &later}.ApplyTo(&rec)
	assert.Equal(t, later, *rec.NextBillingTime)
}

func TestUpdateFromSnapshotEmailPrecedence(t *testing.T) {
	snap := &SubscriptionSnapshot{SubscriptionID: "sub_1", Status: StatusActive, Email: "hint@x.com"}

	assert.Equal(t, "arg@x.com", UpdateFromSnapshot(snap, "arg@x.com", "").Email)
	assert.Equal(t, "hint@x.com", UpdateFromSnapshot(snap, "", "").Email)
}

func TestIsActiveForApp(t *testing.T) {
	cases := []struct {
		status SubscriptionStatus
		active bool
	}{
		{StatusActive, true},
		{StatusApprovalPending, true},
		{StatusApproved, true},
		{StatusCancelled, false},
		{StatusSuspended, false},
		{StatusExpired, false},
		{StatusNone, false},
		{SubscriptionStatus("SOMETHING_NEW"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.active, tc.status.IsActiveForApp(), "status %s", tc.status)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@x.com", NormalizeEmail("  User@X.Com "))
	assert.Equal(t, "", NormalizeEmail("   "))
}
