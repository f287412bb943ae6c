package models

import "time"

// SubscriptionStatus is the billing provider's subscription lifecycle state.
type SubscriptionStatus string

const (
	StatusActive          SubscriptionStatus = "ACTIVE"
	StatusApprovalPending SubscriptionStatus = "APPROVAL_PENDING"
	StatusApproved        SubscriptionStatus = "APPROVED"
	StatusSuspended       SubscriptionStatus = "SUSPENDED"
	StatusCancelled       SubscriptionStatus = "CANCELLED"
	StatusExpired         SubscriptionStatus = "EXPIRED"

	// StatusNone is written when a lookup finds no subscription data at all,
	// so "no record" and "still active from last check" can never be confused.
	StatusNone SubscriptionStatus = "NONE"
)

// IsActiveForApp reports whether the status entitles the user to the paid
// feature set. Pending/approval states count: a user mid-checkout is not
// blocked while the provider finishes activation. Every other status,
// known or not, is inactive.
func (s SubscriptionStatus) IsActiveForApp() bool {
	switch s {
	case StatusActive, StatusApprovalPending, StatusApproved:
		return true
	default:
		return false
	}
}

// SubscriptionSnapshot is a point-in-time fetch of subscription state from
// the billing provider. It is never persisted verbatim; only its fields are
// merged into the durable SubscriptionRecord.
type SubscriptionSnapshot struct {
	SubscriptionID  string
	Status          SubscriptionStatus
	PlanID          string
	StartTime       *time.Time
	NextBillingTime *time.Time
	LastPaymentTime *time.Time
	// Email is the subscriber address when the provider includes one.
	// Treated as a hint; the stored record's binding wins if this is empty.
	Email string
}

// SubscriptionRecord is the durable per-subscription-id history. Fields
// accumulate: a merge never replaces a known value with an absent one, so
// the email binding survives later updates that omit it.
type SubscriptionRecord struct {
	SubscriptionID   string             `json:"subscriptionId" firestore:"subscriptionId"`
	Email            string             `json:"email,omitempty" firestore:"email,omitempty"`
	Status           SubscriptionStatus `json:"status,omitempty" firestore:"status,omitempty"`
	PlanID           string             `json:"planId,omitempty" firestore:"planId,omitempty"`
	StartTime        *time.Time         `json:"startTime,omitempty" firestore:"startTime,omitempty"`
	NextBillingTime  *time.Time         `json:"nextBillingTime,omitempty" firestore:"nextBillingTime,omitempty"`
	LastPaymentTime  *time.Time         `json:"lastPaymentTime,omitempty" firestore:"lastPaymentTime,omitempty"`
	LastWebhookEvent string             `json:"lastWebhookEvent,omitempty" firestore:"lastWebhookEvent,omitempty"`
	UpdatedAt        time.Time          `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// SubscriptionUpdate carries the fields of one incoming observation.
// Zero-valued fields mean "not present in this update" and leave the stored
// value untouched.
type SubscriptionUpdate struct {
	Email            string
	Status           SubscriptionStatus
	PlanID           string
	StartTime        *time.Time
	NextBillingTime  *time.Time
	LastPaymentTime  *time.Time
	LastWebhookEvent string
}

// ApplyTo merges the update into rec, field by field, new non-empty value
// wins. Callers serialize concurrent applications per subscription id.
func (u SubscriptionUpdate) ApplyTo(rec *SubscriptionRecord) {
	if u.Email != "" {
		rec.Email = u.Email
	}
	if u.Status != "" {
		rec.Status = u.Status
	}
	if u.PlanID != "" {
		rec.PlanID = u.PlanID
	}
	if u.StartTime != nil {
		rec.StartTime = u.StartTime
	}
	if u.NextBillingTime != nil {
		rec.NextBillingTime = u.NextBillingTime
	}
	if u.LastPaymentTime != nil {
		rec.LastPaymentTime = u.LastPaymentTime
	}
	if u.LastWebhookEvent != "" {
		rec.LastWebhookEvent = u.LastWebhookEvent
	}
}

// UpdateFromSnapshot builds the merge payload for one provider fetch.
// The email argument (when non-empty) overrides the snapshot's own hint.
func UpdateFromSnapshot(snap *SubscriptionSnapshot, email, webhookEvent string) SubscriptionUpdate {
	if email == "" {
		email = snap.Email
	}
	return SubscriptionUpdate{
		Email:            email,
		Status:           snap.Status,
		PlanID:           snap.PlanID,
		StartTime:        snap.StartTime,
		NextBillingTime:  snap.NextBillingTime,
		LastPaymentTime:  snap.LastPaymentTime,
		LastWebhookEvent: webhookEvent,
	}
}
