package sslcommerz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"laptopVision/domain"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type SSLCommerzConfig struct {
	StoreID       string
	StorePassword string
	SessionURL    string
	Currency      string
	// BackendURL is the public base for the success/fail/cancel callbacks.
	BackendURL string
}

// SSLCommerzRepository talks to the SSLCommerz gwprocess API. The processor
// has no Go SDK; the session request is a plain form POST.
type SSLCommerzRepository struct {
	config SSLCommerzConfig
	client *http.Client
}

func NewSSLCommerzRepository(cfg SSLCommerzConfig) *SSLCommerzRepository {
	return &SSLCommerzRepository{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateSession submits a payment-session request and returns the processor's
// redirect URL. No order state changes here; the order stays Pending/Unpaid
// until a callback arrives.
func (r *SSLCommerzRepository) CreateSession(ctx context.Context, order domain.Order, user domain.User, txnID string) (string, error) {
	custName := user.Name
	if custName == "" {
		custName = "Guest"
	}
	custEmail := user.Email
	if custEmail == "" {
		custEmail = "guest@example.com"
	}

	form := url.Values{}
	form.Set("store_id", r.config.StoreID)
	form.Set("store_passwd", r.config.StorePassword)
	form.Set("total_amount", fmt.Sprintf("%.2f", order.TotalPrice))
	form.Set("currency", r.config.Currency)
	form.Set("tran_id", txnID)
	form.Set("success_url", fmt.Sprintf("%s/api/v1/payments/success/%d", r.config.BackendURL, order.ID))
	form.Set("fail_url", fmt.Sprintf("%s/api/v1/payments/fail/%d", r.config.BackendURL, order.ID))
	form.Set("cancel_url", fmt.Sprintf("%s/api/v1/payments/cancel/%d", r.config.BackendURL, order.ID))
	form.Set("cus_name", custName)
	form.Set("cus_email", custEmail)
	form.Set("product_name", fmt.Sprintf("Order #%d", order.ID))
	form.Set("product_category", "General")
	form.Set("product_profile", "general")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.SessionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("sslcommerz returned status %d", res.StatusCode)
	}

	var session domain.SSLCommerzSession
	if err := json.Unmarshal(body, &session); err != nil {
		return "", fmt.Errorf("failed to decode sslcommerz response: %w", err)
	}

	if session.GatewayPageURL == "" {
		if session.FailedReason != "" {
			return "", fmt.Errorf("sslcommerz rejected session: %s", session.FailedReason)
		}
		return "", fmt.Errorf("sslcommerz returned no gateway url")
	}

	return session.GatewayPageURL, nil
}
