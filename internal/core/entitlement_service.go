package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"entitlement-backend-go/internal/cache"
	"entitlement-backend-go/internal/db"
	"entitlement-backend-go/internal/events"
	"entitlement-backend-go/internal/models"
)

const (
	cacheKeyPrefix = "entitlement:"
	cacheTTL       = time.Minute
)

// entitlementService implements EntitlementService. Cache and publisher are
// optional (nil disables them); the Firestore repositories and the provider
// client are required.
type entitlementService struct {
	subs      db.SubscriptionRepository
	users     db.EntitlementRepository
	provider  ProviderClient
	plans     *PlanTable
	cache     cache.Cache
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

// NewEntitlementService creates the reconciliation engine.
func NewEntitlementService(
	subs db.SubscriptionRepository,
	users db.EntitlementRepository,
	provider ProviderClient,
	plans *PlanTable,
	c cache.Cache,
	publisher events.Publisher,
	logger *zap.Logger,
) EntitlementService {
	return &entitlementService{
		subs:      subs,
		users:     users,
		provider:  provider,
		plans:     plans,
		cache:     c,
		publisher: publisher,
		log:       logger,
		now:       time.Now,
	}
}

// ValidateSubscription fetches authoritative state and reconciles. The
// result reflects the snapshot even when the subscription has no bound
// identity yet; in that case no entitlement is written but the subscription
// history is still retained.
func (s *entitlementService) ValidateSubscription(ctx context.Context, subscriptionID, email string) (*models.ValidationResult, error) {
	if subscriptionID == "" {
		return nil, fmt.Errorf("%w: subscriptionId is required", ErrInvalidArgument)
	}

	snap, err := s.provider.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.ReconcileSnapshot(ctx, snap, email, ""); err != nil {
		return nil, err
	}

	return &models.ValidationResult{
		ActiveForApp:       snap.Status.IsActiveForApp(),
		SubscriptionStatus: snap.Status,
		SubscriptionID:     snap.SubscriptionID,
		PlanID:             snap.PlanID,
		NextBillingTime:    snap.NextBillingTime,
		LastPaymentTime:    snap.LastPaymentTime,
	}, nil
}

// ReconcileSnapshot merges a provider snapshot into the record store and
// derives the entitlement for the bound identity. Idempotent: replaying the
// same snapshot rewrites identical fields (only validation timestamps
// advance), so webhook redelivery is safe.
func (s *entitlementService) ReconcileSnapshot(ctx context.Context, snap *models.SubscriptionSnapshot, email, webhookEvent string) (*models.UserEntitlement, error) {
	if snap == nil || snap.SubscriptionID == "" {
		return nil, fmt.Errorf("%w: snapshot without subscription id", ErrInvalidArgument)
	}
	email = models.NormalizeEmail(email)

	update := models.UpdateFromSnapshot(snap, email, webhookEvent)
	update.Email = models.NormalizeEmail(update.Email)
	rec, err := s.subs.MergeUpsert(ctx, snap.SubscriptionID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to merge subscription %s: %w", snap.SubscriptionID, err)
	}

	// The post-merge record recovers an email bound by an earlier update
	// even when this one carries none. Without any binding the identity is
	// unknown: keep the history, write no entitlement.
	finalEmail := models.NormalizeEmail(rec.Email)
	if finalEmail == "" {
		s.log.Info("subscription has no bound email, entitlement not written",
			zap.String("subscriptionId", snap.SubscriptionID),
			zap.String("status", string(snap.Status)))
		return nil, nil
	}

	active := snap.Status.IsActiveForApp()
	plan := s.plans.PlanFor(snap.PlanID)

	// Revocation takes effect immediately: an inactive status clears the
	// offline expiry regardless of any previously cached window.
	var expiresAt *time.Time
	if active {
		expiresAt = expiryFor(plan, s.now())
	}

	ent := &models.UserEntitlement{
		Email:              finalEmail,
		ProActive:          active,
		Plan:               plan,
		Source:             models.SourcePayPal,
		SubscriptionStatus: snap.Status,
		SubscriptionID:     snap.SubscriptionID,
		PlanID:             snap.PlanID,
		NextBillingTime:    snap.NextBillingTime,
		LastPaymentTime:    snap.LastPaymentTime,
		ExpiresAt:          expiresAt,
		LastValidatedAt:    s.now().UTC(),
	}
	if err := s.users.Upsert(ctx, ent); err != nil {
		return nil, fmt.Errorf("failed to upsert entitlement for %s: %w", finalEmail, err)
	}
	s.afterWrite(ctx, ent)

	s.log.Info("entitlement reconciled",
		zap.String("email", finalEmail),
		zap.String("subscriptionId", snap.SubscriptionID),
		zap.String("status", string(snap.Status)),
		zap.Bool("proActive", active))
	return ent, nil
}

// ActivateManual grants entitlement without a provider subscription. A
// synthetic subscription id keeps the grant traceable in the legacy index.
func (s *entitlementService) ActivateManual(ctx context.Context, email string, plan models.Plan) (*models.ManualActivation, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	if !plan.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlan, plan)
	}

	now := s.now()
	expiresAt := expiryFor(plan, now)
	ent := &models.UserEntitlement{
		Email:              email,
		ProActive:          true,
		Plan:               plan,
		Source:             models.SourceQR,
		SubscriptionStatus: models.StatusActive,
		SubscriptionID:     "QR-" + uuid.NewString(),
		ExpiresAt:          expiresAt,
		LastValidatedAt:    now.UTC(),
	}
	if err := s.users.Upsert(ctx, ent); err != nil {
		return nil, fmt.Errorf("failed to upsert manual grant for %s: %w", email, err)
	}
	s.afterWrite(ctx, ent)

	s.log.Info("manual entitlement granted",
		zap.String("email", email),
		zap.String("plan", string(plan)),
		zap.String("subscriptionId", ent.SubscriptionID))
	return &models.ManualActivation{Email: email, Plan: plan, ExpiresAt: expiresAt}, nil
}

// GetEntitlement is the lookup-only reconciliation path. When no record
// exists it writes the deterministic inactive shape so absence of a record
// is never mistaken for "still active from the last check". When a record
// exists and is backed by a stored subscription, the activation flag is
// re-derived from the stored status.
func (s *entitlementService) GetEntitlement(ctx context.Context, email string) (*models.UserEntitlement, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}

	if cached := s.cachedEntitlement(ctx, email); cached != nil {
		return cached, nil
	}

	ent, err := s.users.Get(ctx, email)
	switch {
	case err == nil:
		// keep going below
	case errors.Is(err, db.ErrNotFound):
		ent = &models.UserEntitlement{
			Email:              email,
			ProActive:          false,
			Source:             models.SourceBackend,
			SubscriptionStatus: models.StatusNone,
			LastValidatedAt:    s.now().UTC(),
		}
		if err := s.users.Upsert(ctx, ent); err != nil {
			return nil, fmt.Errorf("failed to write default entitlement for %s: %w", email, err)
		}
		s.afterWrite(ctx, ent)
		return ent, nil
	default:
		return nil, fmt.Errorf("failed to read entitlement for %s: %w", email, err)
	}

	// Manual grants have no provider record to re-derive from.
	if ent.Source != models.SourceQR && ent.SubscriptionID != "" {
		if rec, recErr := s.subs.GetByID(ctx, ent.SubscriptionID); recErr == nil && rec.Status != "" {
			active := rec.Status.IsActiveForApp()
			ent.ProActive = active
			ent.SubscriptionStatus = rec.Status
			if !active {
				ent.ExpiresAt = nil
			} else if ent.ExpiresAt == nil {
				ent.ExpiresAt = expiryFor(s.plans.PlanFor(rec.PlanID), s.now())
			}
		}
	}

	ent.Source = entitlementLookupSource(ent.Source)
	ent.LastValidatedAt = s.now().UTC()
	if err := s.users.Upsert(ctx, ent); err != nil {
		return nil, fmt.Errorf("failed to refresh entitlement for %s: %w", email, err)
	}
	s.afterWrite(ctx, ent)
	s.cacheEntitlement(ctx, ent)
	return ent, nil
}

// entitlementLookupSource keeps the qr source sticky; every other channel
// becomes "backend" on lookup-only reconciliation.
func entitlementLookupSource(src models.Source) models.Source {
	if src == models.SourceQR {
		return src
	}
	return models.SourceBackend
}

// afterWrite invalidates the read cache and publishes the change event.
// Both are best-effort and never fail the reconciliation.
func (s *entitlementService) afterWrite(ctx context.Context, ent *models.UserEntitlement) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKeyPrefix+ent.Email); err != nil {
			s.log.Warn("cache invalidation failed", zap.String("email", ent.Email), zap.Error(err))
		}
	}
	if s.publisher != nil {
		event := events.EntitlementChanged{
			Email:              ent.Email,
			ProActive:          ent.ProActive,
			Plan:               ent.Plan,
			Source:             ent.Source,
			SubscriptionStatus: ent.SubscriptionStatus,
			SubscriptionID:     ent.SubscriptionID,
			OccurredAt:         s.now().UTC(),
		}
		body, err := json.Marshal(event)
		if err == nil {
			err = s.publisher.Publish(ctx, events.RoutingKeyEntitlementChanged, body)
		}
		if err != nil {
			s.log.Warn("entitlement event publish failed", zap.String("email", ent.Email), zap.Error(err))
		}
	}
}

func (s *entitlementService) cachedEntitlement(ctx context.Context, email string) *models.UserEntitlement {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, cacheKeyPrefix+email)
	if err != nil {
		s.log.Warn("cache read failed", zap.String("email", email), zap.Error(err))
		return nil
	}
	if raw == "" {
		return nil
	}
	var ent models.UserEntitlement
	if err := json.Unmarshal([]byte(raw), &ent); err != nil {
		return nil
	}
	return &ent
}

func (s *entitlementService) cacheEntitlement(ctx context.Context, ent *models.UserEntitlement) {
	if s.cache == nil {
		return
	}
	body, err := json.Marshal(ent)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+ent.Email, string(body), cacheTTL); err != nil {
		s.log.Warn("cache write failed", zap.String("email", ent.Email), zap.Error(err))
	}
}
