// Package payment talks to PayMongo to start GCash payments.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"eden/internal/apperr"
	"eden/internal/money"
)

const DefaultBaseURL = "https://api.paymongo.com/v1"

type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Source is the part of a PayMongo source the storefront needs.
type Source struct {
	ID          string
	Status      string
	CheckoutURL string
}

type redirect struct {
	Success     string `json:"success"`
	Failed      string `json:"failed"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

type sourceAttributes struct {
	Type     string   `json:"type"`
	Amount   int64    `json:"amount"`
	Currency string   `json:"currency"`
	Redirect redirect `json:"redirect"`
	Status   string   `json:"status,omitempty"`
}

type sourceEnvelope struct {
	Data struct {
		ID         string           `json:"id,omitempty"`
		Attributes sourceAttributes `json:"attributes"`
	} `json:"data"`
}

type apiErrors struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// CreateGCashSource creates a gcash source for amount. PayMongo amounts are centavos.
func (c *Client) CreateGCashSource(ctx context.Context, amount money.Centavos, currency, successURL, failedURL string) (*Source, error) {
	const op = "payment.CreateGCashSource"
	if amount <= 0 {
		return nil, apperr.Validation(op, "amount must be positive")
	}
	if c.secretKey == "" {
		return nil, apperr.Dependency(op, "payments are not configured", nil)
	}

	var body sourceEnvelope
	body.Data.Attributes = sourceAttributes{
		Type:     "gcash",
		Amount:   int64(amount),
		Currency: currency,
		Redirect: redirect{Success: successURL, Failed: failedURL},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sources", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Dependency(op, "payment provider unreachable", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperr.Dependency(op, "payment provider response unreadable", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr apiErrors
		detail := resp.Status
		if json.Unmarshal(raw, &apiErr) == nil && len(apiErr.Errors) > 0 {
			detail = apiErr.Errors[0].Detail
		}
		return nil, apperr.Dependency(op, "payment provider rejected the request",
			fmt.Errorf("paymongo %d: %s", resp.StatusCode, detail))
	}

	var out sourceEnvelope
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperr.Dependency(op, "payment provider response unreadable", err)
	}
	if out.Data.Attributes.Redirect.CheckoutURL == "" {
		return nil, apperr.Dependency(op, "payment provider returned no checkout url", nil)
	}
	return &Source{
		ID:          out.Data.ID,
		Status:      out.Data.Attributes.Status,
		CheckoutURL: out.Data.Attributes.Redirect.CheckoutURL,
	}, nil
}
