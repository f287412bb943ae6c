package core

import (
	"context"
	"net/http"

	"entitlement-backend-go/internal/models"
)

// ProviderClient talks to the billing provider. A fresh bearer token is
// fetched per logical operation; implementations keep no state between calls.
type ProviderClient interface {
	// GetSubscription fetches the provider's canonical subscription resource.
	GetSubscription(ctx context.Context, subscriptionID string) (*models.SubscriptionSnapshot, error)

	// VerifyWebhookSignature forwards a delivery's transmission headers and
	// raw payload to the provider's verification endpoint. Returns true only
	// when the provider confirms validity. Fails closed on any error.
	VerifyWebhookSignature(ctx context.Context, headers http.Header, rawBody []byte) (bool, error)
}

// EntitlementService is the reconciliation engine: it derives the per-email
// entitlement record from provider snapshots, manual grants, and lookups.
type EntitlementService interface {
	// ValidateSubscription fetches authoritative state for a subscription id,
	// merges it into the record store, and reconciles the bound identity's
	// entitlement. The returned result reflects the snapshot even when no
	// identity is bound yet (in which case no entitlement is written).
	ValidateSubscription(ctx context.Context, subscriptionID, email string) (*models.ValidationResult, error)

	// ReconcileSnapshot merges an already-fetched snapshot (webhook path) and
	// reconciles the entitlement. Returns the written entitlement, or nil if
	// no email could be resolved for the subscription.
	ReconcileSnapshot(ctx context.Context, snap *models.SubscriptionSnapshot, email, webhookEvent string) (*models.UserEntitlement, error)

	// ActivateManual grants entitlement out of band, without any provider
	// subscription backing it.
	ActivateManual(ctx context.Context, email string, plan models.Plan) (*models.ManualActivation, error)

	// GetEntitlement returns the current entitlement for an email, writing a
	// deterministic inactive record when none exists.
	GetEntitlement(ctx context.Context, email string) (*models.UserEntitlement, error)
}

// WebhookService drives a webhook delivery through signature verification,
// authoritative re-fetch, and reconciliation.
type WebhookService interface {
	HandleEvent(ctx context.Context, headers http.Header, rawBody []byte) error
}
