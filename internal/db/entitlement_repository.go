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

const (
	usersCollection = "users"
	// userSubscriptionsCollection is the legacy secondary index, kept
	// field-compatible with the users collection for readers that predate it.
	userSubscriptionsCollection = "userSubscriptions"
)

// firestoreEntitlementRepository implements EntitlementRepository.
type firestoreEntitlementRepository struct {
	client *firestore.Client
}

// NewFirestoreEntitlementRepository creates the Firestore-backed entitlement
// store.
func NewFirestoreEntitlementRepository(client *firestore.Client) EntitlementRepository {
	return &firestoreEntitlementRepository{client: client}
}

// Upsert overwrites the entitlement document at the email key and mirrors it
// into the legacy index. The email must already be normalized.
func (r *firestoreEntitlementRepository) Upsert(ctx context.Context, ent *models.UserEntitlement) error {
	if ent == nil || ent.Email == "" {
		return errors.New("entitlement with email is required for Upsert")
	}

	if _, err := r.client.Collection(usersCollection).Doc(ent.Email).Set(ctx, ent); err != nil {
		return fmt.Errorf("failed to upsert entitlement for %s: %w", ent.Email, err)
	}
	if _, err := r.client.Collection(userSubscriptionsCollection).Doc(ent.Email).Set(ctx, ent); err != nil {
		return fmt.Errorf("failed to mirror entitlement for %s into legacy index: %w", ent.Email, err)
	}
	return nil
}

// Get retrieves the entitlement for a normalized email.
func (r *firestoreEntitlementRepository) Get(ctx context.Context, email string) (*models.UserEntitlement, error) {
	if email == "" {
		return nil, errors.New("email cannot be empty for Get")
	}

	snap, err := r.client.Collection(usersCollection).Doc(email).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("entitlement for %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get entitlement for %s: %w", email, err)
	}

	var ent models.UserEntitlement
	if err := snap.DataTo(&ent); err != nil {
		return nil, fmt.Errorf("failed to decode entitlement for %s: %w", email, err)
	}
	ent.Email = snap.Ref.ID
	return &ent, nil
}
