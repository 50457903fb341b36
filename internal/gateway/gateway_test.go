package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dchirkin/provcore/internal/config"
	"github.com/dchirkin/provcore/internal/repos/deposits"
	"github.com/dchirkin/provcore/internal/services/reconcile"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.GatewayConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
}

func TestVerifyMapsProviderStatuses(t *testing.T) {
	tests := []struct {
		name string
		body string
		want reconcile.Verification
	}{
		{
			name: "paid",
			body: `{"status": "paid", "tx_id": "tx-9", "amount_minor": 5000}`,
			want: reconcile.Verification{Status: reconcile.VerificationConfirmed, Ref: "tx-9", AmountMinor: 5000},
		},
		{
			name: "expired",
			body: `{"status": "expired", "tx_id": "tx-10"}`,
			want: reconcile.Verification{Status: reconcile.VerificationInvalid, Ref: "tx-10"},
		},
		{
			name: "cancelled",
			body: `{"status": "cancelled"}`,
			want: reconcile.Verification{Status: reconcile.VerificationInvalid},
		},
		{
			name: "still waiting",
			body: `{"status": "created"}`,
			want: reconcile.Verification{Status: reconcile.VerificationPending},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
					t.Errorf("authorization = %q", got)
				}
				if r.URL.Path != "/v1/invoices/42" {
					t.Errorf("path = %q", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			})

			got, err := c.Verify(context.Background(), deposits.Deposit{ID: 42})
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if got != tc.want {
				t.Fatalf("verification = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestVerifyUnknownInvoiceStaysPending(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	got, err := c.Verify(context.Background(), deposits.Deposit{ID: 7})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Status != reconcile.VerificationPending {
		t.Fatalf("status = %v, want pending", got.Status)
	}
}

func TestVerifyServerErrorIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Verify(context.Background(), deposits.Deposit{ID: 7})
	if err == nil {
		t.Fatal("expected error on 500")
	}
}
