// Package provider is the client for the external bill-fulfilment service.
// Only its success/failure contract matters to the purchase core; its status
// codes are mapped to a small internal taxonomy here so orchestrators never
// see provider-specific strings.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/types"
)

// Fulfiller is what orchestrators depend on; Client implements it against
// the real provider, tests stub it.
type Fulfiller interface {
	Purchase(ctx context.Context, category types.Category, target map[string]string, amountNGN decimal.Decimal) (*types.ProviderResult, error)
}

// Client talks to the fulfilment provider's REST API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

var _ Fulfiller = (*Client)(nil)

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type purchaseRequest struct {
	Category string            `json:"category"`
	Target   map[string]string `json:"target"`
	Amount   string            `json:"amount"`
	Currency string            `json:"currency"`
}

type purchaseResponse struct {
	Status    string         `json:"status"`
	Reference string         `json:"reference"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
}

// statusReasons maps provider status codes to human-readable failure
// reasons. Unknown codes fall through to the provider's own message.
var statusReasons = map[string]string{
	"TXN_SUCCESS":          "delivered",
	"TXN_PENDING":          "provider accepted but has not settled",
	"INSUFFICIENT_BALANCE": "provider wallet depleted",
	"INVALID_RECIPIENT":    "recipient rejected by provider",
	"PRODUCT_UNAVAILABLE":  "product unavailable at provider",
	"PROVIDER_TIMEOUT":     "provider timed out",
	"DUPLICATE_REQUEST":    "provider flagged duplicate request",
}

// Purchase asks the provider to deliver the good. A transport-level failure
// returns an error; a provider-level rejection returns a ProviderResult with
// Success=false and a mapped reason.
func (c *Client) Purchase(ctx context.Context, category types.Category, target map[string]string, amountNGN decimal.Decimal) (*types.ProviderResult, error) {
	body, err := json.Marshal(purchaseRequest{
		Category: string(category),
		Target:   target,
		Amount:   amountNGN.String(),
		Currency: "NGN",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/bills/pay", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed purchaseResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("provider returned malformed payload (status %d): %w", resp.StatusCode, err)
	}

	result := &types.ProviderResult{
		Reference:  parsed.Reference,
		StatusCode: parsed.Code,
		Reason:     mapReason(parsed.Code, parsed.Message),
		Raw:        parsed.Data,
	}
	result.Success = resp.StatusCode == http.StatusOK && parsed.Status == "success"
	return result, nil
}

func mapReason(code, message string) string {
	if reason, ok := statusReasons[code]; ok {
		return reason
	}
	if message != "" {
		return message
	}
	return "provider rejected the purchase"
}
