package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"entitlement-backend-go/internal/models"
)

const subscriptionsCollection = "subscriptions"

// firestoreSubscriptionRepository implements SubscriptionRepository.
type firestoreSubscriptionRepository struct {
	client *firestore.Client
}

// NewFirestoreSubscriptionRepository creates the Firestore-backed
// subscription record store.
func NewFirestoreSubscriptionRepository(client *firestore.Client) SubscriptionRepository {
	return &firestoreSubscriptionRepository{client: client}
}

// MergeUpsert merges one update into the record for a subscription id.
// The read-modify-write runs inside a Firestore transaction, which
// serializes concurrent merges on the same document: when two deliveries
// race, the loser's transaction retries on the fresh document instead of
// overwriting the winner's non-overlapping fields.
func (r *firestoreSubscriptionRepository) MergeUpsert(ctx context.Context, subscriptionID string, update models.SubscriptionUpdate) (*models.SubscriptionRecord, error) {
	if subscriptionID == "" {
		return nil, errors.New("subscriptionID cannot be empty for MergeUpsert")
	}

	ref := r.client.Collection(subscriptionsCollection).Doc(subscriptionID)
	var merged models.SubscriptionRecord

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		rec := models.SubscriptionRecord{SubscriptionID: subscriptionID}
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			if err := snap.DataTo(&rec); err != nil {
				return fmt.Errorf("failed to decode subscription %s: %w", subscriptionID, err)
			}
			rec.SubscriptionID = subscriptionID
		case status.Code(err) == codes.NotFound:
			// first observation of this subscription
		default:
			return err
		}

		update.ApplyTo(&rec)
		merged = rec
		return tx.Set(ref, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("merge upsert for subscription %s failed: %w", subscriptionID, err)
	}
	return &merged, nil
}

// GetByID retrieves the stored record for a subscription id.
func (r *firestoreSubscriptionRepository) GetByID(ctx context.Context, subscriptionID string) (*models.SubscriptionRecord, error) {
	if subscriptionID == "" {
		return nil, errors.New("subscriptionID cannot be empty for GetByID")
	}

	snap, err := r.client.Collection(subscriptionsCollection).Doc(subscriptionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("subscription %s: %w", subscriptionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription %s: %w", subscriptionID, err)
	}

	var rec models.SubscriptionRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode subscription %s: %w", subscriptionID, err)
	}
	rec.SubscriptionID = subscriptionID
	return &rec, nil
}
