package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// webhookEvent is the slice of the provider's event payload the intake needs:
// the event type and the embedded resource. Everything else in the payload is
// a hint at best; authoritative state is always re-fetched.
type webhookEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID string `json:"id"`
		// Payment events reference the subscription indirectly.
		BillingAgreementID string `json:"billing_agreement_id"`
	} `json:"resource"`
}

const subscriptionEventPrefix = "BILLING.SUBSCRIPTION."

// subscriptionID extracts the subscription id the event refers to, or ""
// when the event carries none.
func (e *webhookEvent) subscriptionID() string {
	if e.Resource.BillingAgreementID != "" {
		return e.Resource.BillingAgreementID
	}
	if strings.HasPrefix(e.EventType, subscriptionEventPrefix) {
		return e.Resource.ID
	}
	return ""
}

// webhookService implements WebhookService.
type webhookService struct {
	provider    ProviderClient
	entitlement EntitlementService
	log         *zap.Logger
}

// NewWebhookService creates the webhook intake.
func NewWebhookService(provider ProviderClient, entitlement EntitlementService, logger *zap.Logger) WebhookService {
	return &webhookService{provider: provider, entitlement: entitlement, log: logger}
}

// HandleEvent drives one delivery through verification, state fetch, and
// reconciliation. An unverifiable delivery is rejected before any store
// access. An event that names no subscription is acknowledged as a no-op so
// the provider stops redelivering it. Webhooks rarely carry identity; the
// engine recovers the email from the subscription record's prior binding.
func (s *webhookService) HandleEvent(ctx context.Context, headers http.Header, rawBody []byte) error {
	verified, err := s.provider.VerifyWebhookSignature(ctx, headers, rawBody)
	if err != nil {
		// Fail closed: a verification error is a rejection, never a pass.
		s.log.Warn("webhook signature verification errored", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	if !verified {
		s.log.Warn("webhook signature rejected by provider")
		return ErrSignatureInvalid
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		// Authentic but unparseable. Acknowledge instead of forcing the
		// provider into a redelivery loop that can never succeed.
		s.log.Warn("webhook payload not parseable, acknowledging as no-op", zap.Error(err))
		return nil
	}

	subscriptionID := event.subscriptionID()
	if subscriptionID == "" {
		s.log.Info("webhook carries no subscription id, acknowledging as no-op",
			zap.String("eventType", event.EventType),
			zap.String("eventId", event.ID))
		return nil
	}

	// The payload is a hint; the live fetch is the record. This defends
	// against stale or partial payload schemas.
	snap, err := s.provider.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription %s for webhook %s: %w", subscriptionID, event.ID, err)
	}

	ent, err := s.entitlement.ReconcileSnapshot(ctx, snap, "", event.EventType)
	if err != nil {
		return err
	}
	if ent == nil {
		// Identity never bound. Not retryable by redelivery, so still ack.
		s.log.Info("webhook reconciled without entitlement write",
			zap.String("eventType", event.EventType),
			zap.String("subscriptionId", subscriptionID))
	}
	return nil
}
