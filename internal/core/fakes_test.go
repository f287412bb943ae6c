package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"entitlement-backend-go/internal/db"
	"entitlement-backend-go/internal/models"
)

// fakeSubscriptionRepo is an in-memory SubscriptionRepository sharing the
// production merge semantics via SubscriptionUpdate.ApplyTo.
type fakeSubscriptionRepo struct {
	records    map[string]models.SubscriptionRecord
	mergeCalls int
	mergeErr   error
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{records: make(map[string]models.SubscriptionRecord)}
}

func (r *fakeSubscriptionRepo) MergeUpsert(_ context.Context, id string, update models.SubscriptionUpdate) (*models.SubscriptionRecord, error) {
	r.mergeCalls++
	if r.mergeErr != nil {
		return nil, r.mergeErr
	}
	rec, ok := r.records[id]
	if !ok {
		rec = models.SubscriptionRecord{SubscriptionID: id}
	}
	update.ApplyTo(&rec)
	rec.UpdatedAt = time.Now().UTC()
	r.records[id] = rec
	out := rec
	return &out, nil
}

func (r *fakeSubscriptionRepo) GetByID(_ context.Context, id string) (*models.SubscriptionRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("subscription %s: %w", id, db.ErrNotFound)
	}
	out := rec
	return &out, nil
}

// fakeEntitlementRepo is an in-memory EntitlementRepository.
type fakeEntitlementRepo struct {
	entitlements map[string]models.UserEntitlement
	upsertCalls  int
	upsertErr    error
}

func newFakeEntitlementRepo() *fakeEntitlementRepo {
	return &fakeEntitlementRepo{entitlements: make(map[string]models.UserEntitlement)}
}

func (r *fakeEntitlementRepo) Upsert(_ context.Context, ent *models.UserEntitlement) error {
	r.upsertCalls++
	if r.upsertErr != nil {
		return r.upsertErr
	}
	ent.UpdatedAt = time.Now().UTC()
	r.entitlements[ent.Email] = *ent
	return nil
}

func (r *fakeEntitlementRepo) Get(_ context.Context, email string) (*models.UserEntitlement, error) {
	ent, ok := r.entitlements[email]
	if !ok {
		return nil, fmt.Errorf("entitlement for %s: %w", email, db.ErrNotFound)
	}
	out := ent
	return &out, nil
}

// fakeProvider is a canned ProviderClient.
type fakeProvider struct {
	snapshots  map[string]*models.SubscriptionSnapshot
	getErr     error
	getCalls   int
	verifyOK   bool
	verifyErr  error
	verifyCall int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{snapshots: make(map[string]*models.SubscriptionSnapshot), verifyOK: true}
}

func (p *fakeProvider) GetSubscription(_ context.Context, id string) (*models.SubscriptionSnapshot, error) {
	p.getCalls++
	if p.getErr != nil {
		return nil, p.getErr
	}
	snap, ok := p.snapshots[id]
	if !ok {
		return nil, fmt.Errorf("%w: subscription %s returned 404", ErrProviderRejected, id)
	}
	out := *snap
	return &out, nil
}

func (p *fakeProvider) VerifyWebhookSignature(_ context.Context, _ http.Header, _ []byte) (bool, error) {
	p.verifyCall++
	if p.verifyErr != nil {
		return false, p.verifyErr
	}
	return p.verifyOK, nil
}
