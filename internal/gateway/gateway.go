// Package gateway asks the payment provider about invoice status. It is the
// production Verifier behind the deposit check pass; everything the engine
// needs from the provider is one status lookup per pending deposit.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dchirkin/provcore/internal/config"
	"github.com/dchirkin/provcore/internal/repos/deposits"
	"github.com/dchirkin/provcore/internal/services/reconcile"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(cfg config.GatewayConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// invoiceStatus is the provider's answer for one invoice.
type invoiceStatus struct {
	Status      string `json:"status"`
	TxID        string `json:"tx_id"`
	AmountMinor int64  `json:"amount_minor"`
}

func (c *Client) Verify(ctx context.Context, dep deposits.Deposit) (reconcile.Verification, error) {
	url := fmt.Sprintf("%s/v1/invoices/%d", c.baseURL, dep.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return reconcile.Verification{}, fmt.Errorf("build invoice request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return reconcile.Verification{}, fmt.Errorf("invoice %d status: %w", dep.ID, err)
	}
	//nolint:errcheck
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// The provider never saw this invoice. Not a verdict; keep waiting.
		return reconcile.Verification{Status: reconcile.VerificationPending}, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return reconcile.Verification{}, fmt.Errorf("invoice %d status: gateway returned %d: %s", dep.ID, resp.StatusCode, body)
	}

	var inv invoiceStatus
	if err := json.NewDecoder(resp.Body).Decode(&inv); err != nil {
		return reconcile.Verification{}, fmt.Errorf("decode invoice %d status: %w", dep.ID, err)
	}

	switch inv.Status {
	case "paid":
		return reconcile.Verification{
			Status:      reconcile.VerificationConfirmed,
			Ref:         inv.TxID,
			AmountMinor: inv.AmountMinor,
		}, nil
	case "expired", "cancelled":
		return reconcile.Verification{
			Status: reconcile.VerificationInvalid,
			Ref:    inv.TxID,
		}, nil
	default:
		return reconcile.Verification{Status: reconcile.VerificationPending}, nil
	}
}
