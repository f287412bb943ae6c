package models

import (
	"strings"
	"time"
)

// Plan is the billing term of a subscription.
type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
	// PlanUnknown marks a plan id the static table does not recognize.
	// Unknown is preferable to guessing a term.
	PlanUnknown Plan = ""
)

// Valid reports whether p is one of the two known billing terms.
func (p Plan) Valid() bool {
	return p == PlanMonthly || p == PlanYearly
}

// Source identifies the channel that produced an entitlement write.
type Source string

const (
	SourcePayPal  Source = "paypal"  // validation call or webhook
	SourceQR      Source = "qr"      // manual grant (cash / QR-code sale)
	SourceBackend Source = "backend" // lookup-only reconciliation
	SourceUnknown Source = "unknown"
)

// UserEntitlement is the canonical per-email record the client reads.
// ProActive is the single source of truth online. ExpiresAt only lets an
// offline client self-downgrade between checks; it must never grant access
// on its own, only revoke it after it has passed.
type UserEntitlement struct {
	Email              string             `json:"email" firestore:"email"`
	ProActive          bool               `json:"proActive" firestore:"proActive"`
	Plan               Plan               `json:"plan,omitempty" firestore:"plan,omitempty"`
	Source             Source             `json:"source,omitempty" firestore:"source,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus,omitempty" firestore:"subscriptionStatus,omitempty"`
	SubscriptionID     string             `json:"subscriptionId,omitempty" firestore:"subscriptionId,omitempty"`
	PlanID             string             `json:"planId,omitempty" firestore:"planId,omitempty"`
	NextBillingTime    *time.Time         `json:"nextBillingTime,omitempty" firestore:"nextBillingTime,omitempty"`
	LastPaymentTime    *time.Time         `json:"lastPaymentTime,omitempty" firestore:"lastPaymentTime,omitempty"`
	ExpiresAt          *time.Time         `json:"expiresAt,omitempty" firestore:"expiresAt,omitempty"`
	LastValidatedAt    time.Time          `json:"lastValidatedAt" firestore:"lastValidatedAt"`
	UpdatedAt          time.Time          `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// ValidationResult is the response shape of a subscription validation call.
// It reflects the provider snapshot, whether or not an entitlement could be
// written (identity may still be unbound).
type ValidationResult struct {
	ActiveForApp       bool               `json:"activeForApp"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionID     string             `json:"subscriptionId"`
	PlanID             string             `json:"planId,omitempty"`
	NextBillingTime    *time.Time         `json:"nextBillingTime,omitempty"`
	LastPaymentTime    *time.Time         `json:"lastPaymentTime,omitempty"`
}

// ManualActivation is the response shape of a manual grant.
type ManualActivation struct {
	Email     string     `json:"email"`
	Plan      Plan       `json:"plan"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// NormalizeEmail lowercases and trims an email for use as the canonical
// identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
