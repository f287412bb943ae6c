package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"entitlement-backend-go/internal/config"
	"entitlement-backend-go/internal/core"
	"entitlement-backend-go/internal/middleware"
	"entitlement-backend-go/internal/models"
)

// stubEntitlementService records calls and answers canned results.
type stubEntitlementService struct {
	validateErr   error
	activateCalls int
	lastEmail     string
	lastPlan      models.Plan
}

func (s *stubEntitlementService) ValidateSubscription(_ context.Context, subscriptionID, _ string) (*models.ValidationResult, error) {
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	return &models.ValidationResult{
		ActiveForApp:       true,
		SubscriptionStatus: models.StatusActive,
		SubscriptionID:     subscriptionID,
	}, nil
}

func (s *stubEntitlementService) ReconcileSnapshot(context.Context, *models.SubscriptionSnapshot, string, string) (*models.UserEntitlement, error) {
	return nil, nil
}

func (s *stubEntitlementService) ActivateManual(_ context.Context, email string, plan models.Plan) (*models.ManualActivation, error) {
	s.activateCalls++
	s.lastEmail = email
	s.lastPlan = plan
	if !plan.Valid() {
		return nil, core.ErrInvalidPlan
	}
	return &models.ManualActivation{Email: models.NormalizeEmail(email), Plan: plan}, nil
}

func (s *stubEntitlementService) GetEntitlement(_ context.Context, email string) (*models.UserEntitlement, error) {
	return &models.UserEntitlement{
		Email:              models.NormalizeEmail(email),
		ProActive:          false,
		SubscriptionStatus: models.StatusNone,
	}, nil
}

type stubWebhookService struct {
	err   error
	calls int
}

func (s *stubWebhookService) HandleEvent(context.Context, http.Header, []byte) error {
	s.calls++
	return s.err
}

func newTestRouter(svc core.EntitlementService, wh core.WebhookService, adminSecret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	cfg := &config.Config{AdminAPISecret: adminSecret}
	SetupRoutes(router, cfg, zap.NewNop(), svc, wh)
	return router
}

func TestValidateSubscriptionEndpoint(t *testing.T) {
	router := newTestRouter(&stubEntitlementService{}, &stubWebhookService{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/validate",
		strings.NewReader(`{"subscriptionId":"sub_1","email":"u@x.com"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"activeForApp":true`)
	assert.Contains(t, w.Body.String(), `"subscriptionId":"sub_1"`)
}

func TestValidateSubscriptionMissingIDRejected(t *testing.T) {
	router := newTestRouter(&stubEntitlementService{}, &stubWebhookService{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/validate",
		strings.NewReader(`{"email":"u@x.com"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateSubscriptionProviderErrorsMapped(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{core.ErrProviderUnavailable, http.StatusServiceUnavailable},
		{core.ErrProviderRejected, http.StatusBadGateway},
		{core.ErrAuthFailure, http.StatusBadGateway},
		{core.ErrConfigMissing, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		router := newTestRouter(&stubEntitlementService{validateErr: tc.err}, &stubWebhookService{}, "")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/validate",
			strings.NewReader(`{"subscriptionId":"sub_1"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, tc.status, w.Code, "error %v", tc.err)
	}
}

func TestAdminActivateRequiresSecret(t *testing.T) {
	svc := &stubEntitlementService{}
	router := newTestRouter(svc, &stubWebhookService{}, "s3cret")

	body := `{"email":"u@x.com","plan":"monthly"}`

	// Missing header.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/activate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, svc.activateCalls, "no side effects without credential")

	// Wrong secret.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/activate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AdminSecretHeader, "wrong")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, svc.activateCalls)

	// Correct secret.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/activate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AdminSecretHeader, "s3cret")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.activateCalls)
	assert.Equal(t, "u@x.com", svc.lastEmail)
	assert.Equal(t, models.PlanMonthly, svc.lastPlan)
}

func TestAdminActivateRefusedWhenSecretUnset(t *testing.T) {
	svc := &stubEntitlementService{}
	router := newTestRouter(svc, &stubWebhookService{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/activate",
		strings.NewReader(`{"email":"u@x.com","plan":"monthly"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AdminSecretHeader, "anything")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code, "unset credential never means an open endpoint")
	assert.Equal(t, 0, svc.activateCalls)
}

func TestAdminActivateInvalidPlan(t *testing.T) {
	svc := &stubEntitlementService{}
	router := newTestRouter(svc, &stubWebhookService{}, "s3cret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/activate",
		strings.NewReader(`{"email":"u@x.com","plan":"weekly"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AdminSecretHeader, "s3cret")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookEndpointMapsSignatureRejection(t *testing.T) {
	wh := &stubWebhookService{err: core.ErrSignatureInvalid}
	router := newTestRouter(&stubEntitlementService{}, wh, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paypal", strings.NewReader(`{}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, wh.calls)
}

func TestWebhookEndpointAcknowledges(t *testing.T) {
	wh := &stubWebhookService{}
	router := newTestRouter(&stubEntitlementService{}, wh, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paypal", strings.NewReader(`{}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetEntitlementEndpoint(t *testing.T) {
	router := newTestRouter(&stubEntitlementService{}, &stubWebhookService{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/entitlements/Nobody@X.Com", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "unknown email answers the default shape, not 404")
	assert.Contains(t, w.Body.String(), `"proActive":false`)
	assert.Contains(t, w.Body.String(), `"subscriptionStatus":"NONE"`)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&stubEntitlementService{}, &stubWebhookService{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
