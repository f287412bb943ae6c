package api

import "entitlement-backend-go/internal/models"

// ErrorResponse is the generic error shape returned by the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is the generic success acknowledgement shape.
type SuccessResponse struct {
	Message string `json:"message"`
}

// ValidateSubscriptionRequest asks the backend to fetch and reconcile one
// subscription. Email is optional: webhooks and later validations can bind
// it once known.
type ValidateSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId" binding:"required"`
	Email          string `json:"email"`
}

// ActivateManualRequest grants entitlement out of band.
type ActivateManualRequest struct {
	Email string      `json:"email" binding:"required"`
	Plan  models.Plan `json:"plan" binding:"required"`
}
