package core

import "errors"

// Sentinel errors for the entitlement service and its collaborators.
// Handlers map these to HTTP statuses with errors.Is; lower layers wrap
// them with fmt.Errorf("%w: ...") to add context.
var (
	// ErrConfigMissing means a required credential was absent at call time.
	// Missing credentials are a startup warning, not a crash; the dependent
	// operation fails here instead.
	ErrConfigMissing = errors.New("required configuration missing")

	// ErrProviderUnavailable covers transport errors and timeouts talking to
	// the billing provider. Not retried internally; the provider's webhook
	// redelivery is the retry mechanism.
	ErrProviderUnavailable = errors.New("billing provider unavailable")

	// ErrProviderRejected means the provider answered but refused the request
	// (unknown subscription id, bad state).
	ErrProviderRejected = errors.New("billing provider rejected request")

	// ErrAuthFailure means the client-credentials exchange failed.
	ErrAuthFailure = errors.New("billing provider authentication failed")

	// ErrSignatureInvalid means a webhook delivery could not be verified as
	// authentic. Verification fails closed: errors count as not verified.
	ErrSignatureInvalid = errors.New("webhook signature verification failed")

	// ErrInvalidArgument means caller input was malformed. No side effects.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidPlan means a manual grant named a plan outside the two known
	// billing terms.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrUnauthorized means the admin credential was missing or wrong.
	ErrUnauthorized = errors.New("unauthorized")
)
