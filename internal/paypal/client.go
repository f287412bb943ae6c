package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"entitlement-backend-go/internal/core"
	"entitlement-backend-go/internal/models"
)

const defaultTimeout = 15 * time.Second

// Client implements core.ProviderClient against PayPal's REST API. It keeps
// no state between calls: every logical operation exchanges credentials for
// a fresh bearer token, so no token-expiry bookkeeping is shared across
// concurrent requests.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	webhookID    string
	httpClient   *http.Client
	log          *zap.Logger
}

// Config holds the provider credentials. Any may be empty; the dependent
// call then fails with core.ErrConfigMissing.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	WebhookID    string
}

// NewClient creates a PayPal client with a finite request timeout.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api-m.paypal.com"
	}
	return &Client{
		baseURL:      base,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		webhookID:    cfg.WebhookID,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		log:          logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// getAccessToken performs the client-credentials exchange.
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", fmt.Errorf("%w: paypal client id/secret not configured", core.ErrConfigMissing)
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token exchange: %v", core.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.Warn("paypal token exchange rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return "", fmt.Errorf("%w: token endpoint returned %d", core.ErrAuthFailure, resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("%w: decoding token response: %v", core.ErrAuthFailure, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", core.ErrAuthFailure)
	}
	return tok.AccessToken, nil
}

// subscriptionResource is the slice of PayPal's subscription resource the
// reconciliation needs.
type subscriptionResource struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	PlanID      string `json:"plan_id"`
	StartTime   string `json:"start_time"`
	BillingInfo struct {
		NextBillingTime string `json:"next_billing_time"`
		LastPayment     struct {
			Time string `json:"time"`
		} `json:"last_payment"`
	} `json:"billing_info"`
	Subscriber struct {
		EmailAddress string `json:"email_address"`
	} `json:"subscriber"`
}

// GetSubscription fetches the provider's canonical subscription resource.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*models.SubscriptionSnapshot, error) {
	if subscriptionID == "" {
		return nil, fmt.Errorf("%w: subscription id is empty", core.ErrInvalidArgument)
	}

	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/v1/billing/subscriptions/" + url.PathEscape(subscriptionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build subscription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: subscription fetch: %v", core.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		// fall through to decode
	case resp.StatusCode >= 400 && resp.StatusCode <= 499:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.Warn("paypal rejected subscription fetch",
			zap.String("subscriptionId", subscriptionID),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, fmt.Errorf("%w: subscription %s returned %d", core.ErrProviderRejected, subscriptionID, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: subscription %s returned %d", core.ErrProviderUnavailable, subscriptionID, resp.StatusCode)
	}

	var res subscriptionResource
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: decoding subscription response: %v", core.ErrProviderUnavailable, err)
	}

	return &models.SubscriptionSnapshot{
		SubscriptionID:  res.ID,
		Status:          models.SubscriptionStatus(res.Status),
		PlanID:          res.PlanID,
		StartTime:       parseTime(res.StartTime),
		NextBillingTime: parseTime(res.BillingInfo.NextBillingTime),
		LastPaymentTime: parseTime(res.BillingInfo.LastPayment.Time),
		Email:           res.Subscriber.EmailAddress,
	}, nil
}

// verifyRequest is PayPal's verify-webhook-signature request body. The raw
// received payload is embedded untouched as webhook_event.
type verifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}

// VerifyWebhookSignature asks PayPal whether a delivery is authentic.
// Returns true only on an explicit SUCCESS answer. Errors are returned so
// the caller can fail closed.
func (c *Client) VerifyWebhookSignature(ctx context.Context, headers http.Header, rawBody []byte) (bool, error) {
	if c.webhookID == "" {
		return false, fmt.Errorf("%w: paypal webhook id not configured", core.ErrConfigMissing)
	}
	if !json.Valid(rawBody) {
		return false, fmt.Errorf("%w: webhook payload is not valid JSON", core.ErrInvalidArgument)
	}

	token, err := c.getAccessToken(ctx)
	if err != nil {
		return false, err
	}

	payload := verifyRequest{
		AuthAlgo:         headers.Get("Paypal-Auth-Algo"),
		CertURL:          headers.Get("Paypal-Cert-Url"),
		TransmissionID:   headers.Get("Paypal-Transmission-Id"),
		TransmissionSig:  headers.Get("Paypal-Transmission-Sig"),
		TransmissionTime: headers.Get("Paypal-Transmission-Time"),
		WebhookID:        c.webhookID,
		WebhookEvent:     json.RawMessage(rawBody),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to marshal verification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/notifications/verify-webhook-signature", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: signature verification: %v", core.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: verification endpoint returned %d", core.ErrProviderUnavailable, resp.StatusCode)
	}

	var verdict verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return false, fmt.Errorf("%w: decoding verification response: %v", core.ErrProviderUnavailable, err)
	}
	return verdict.VerificationStatus == "SUCCESS", nil
}

// parseTime parses the provider's RFC3339 instants. Unparseable or empty
// values become nil rather than zero times, so the merge treats them as
// absent.
func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}
