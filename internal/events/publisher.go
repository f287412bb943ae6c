package events

import (
	"context"
	"time"

	"entitlement-backend-go/internal/models"
)

// RoutingKeyEntitlementChanged is the routing key for entitlement writes.
const RoutingKeyEntitlementChanged = "entitlement.changed"

// EntitlementChanged is the event body published after every committed
// entitlement write. Consumers must treat it as a notification, not a
// replayable source of truth; the store holds the canonical record.
type EntitlementChanged struct {
	Email              string                    `json:"email"`
	ProActive          bool                      `json:"proActive"`
	Plan               models.Plan               `json:"plan,omitempty"`
	Source             models.Source             `json:"source,omitempty"`
	SubscriptionStatus models.SubscriptionStatus `json:"subscriptionStatus,omitempty"`
	SubscriptionID     string                    `json:"subscriptionId,omitempty"`
	OccurredAt         time.Time                 `json:"occurredAt"`
}

// Publisher emits entitlement-change events to downstream consumers.
// Publishing is best-effort: a failed publish never fails a reconciliation.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}
