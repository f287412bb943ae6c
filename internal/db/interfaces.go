package db

import (
	"context"
	"errors"

	"entitlement-backend-go/internal/models"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// SubscriptionRepository is the durable, keyed-by-subscription-id history of
// everything learned about a subscription.
type SubscriptionRepository interface {
	// MergeUpsert performs a serialized read-modify-write merge for one
	// subscription id: incoming non-empty fields win, absent fields keep the
	// stored value. Returns the post-merge record so callers can recover a
	// previously bound email even when the current update omits it.
	MergeUpsert(ctx context.Context, subscriptionID string, update models.SubscriptionUpdate) (*models.SubscriptionRecord, error)

	// GetByID returns the stored record, or ErrNotFound.
	GetByID(ctx context.Context, subscriptionID string) (*models.SubscriptionRecord, error)
}

// EntitlementRepository stores the canonical per-email entitlement record.
type EntitlementRepository interface {
	// Upsert overwrites the entitlement at the normalized email key and
	// mirrors it into the legacy secondary index.
	Upsert(ctx context.Context, ent *models.UserEntitlement) error

	// Get returns the stored entitlement, or ErrNotFound.
	Get(ctx context.Context, email string) (*models.UserEntitlement, error)
}
