package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dchirkin/provcore/internal/api"
	"github.com/dchirkin/provcore/internal/config"
	"github.com/dchirkin/provcore/internal/infra/pgtestutil"
	"github.com/dchirkin/provcore/internal/notify"
	"github.com/dchirkin/provcore/internal/provision"
	"github.com/dchirkin/provcore/internal/services/orders"
	"github.com/dchirkin/provcore/internal/services/reconcile"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, cleanup := pgtestutil.NewTestDB(t)
	t.Cleanup(cleanup)

	rec := reconcile.New(db, nil, notify.Nop{}, 30*time.Second)
	ord := orders.New(db,
		provision.NewRunner(config.ProvisionConfig{ScriptsDir: t.TempDir(), ProvisionTimeout: time.Second, ManageTimeout: time.Second}),
		notify.Nop{},
		config.OrdersConfig{RenewalWindow: 72 * time.Hour, LockThreshold: 1000},
		0, 30*time.Second)

	srv := httptest.NewServer(api.NewRouter(rec, ord))
	t.Cleanup(srv.Close)

	return srv
}

func doJSON(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	return resp.StatusCode, out
}

func TestDepositLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	// Create a deposit intent.
	status, dep := doJSON(t, http.MethodPost, srv.URL+"/account/500/deposit",
		map[string]any{"amount": "50.00", "channel": "gateway"})
	if status != http.StatusCreated {
		t.Fatalf("create status = %d: %v", status, dep)
	}
	if dep["status"] != "pending" {
		t.Fatalf("deposit status = %v, want pending", dep["status"])
	}
	depositID := int64(dep["depositId"].(float64))

	// Confirm it manually.
	status, out := doJSON(t, http.MethodPost, fmt.Sprintf("%s/deposit/%d/reconcile", srv.URL, depositID),
		map[string]any{"ref": "tx-500"})
	if status != http.StatusOK {
		t.Fatalf("reconcile status = %d: %v", status, out)
	}
	if out["outcome"] != "newly_confirmed" {
		t.Fatalf("outcome = %v, want newly_confirmed", out["outcome"])
	}

	// Replaying the confirmation changes nothing.
	status, out = doJSON(t, http.MethodPost, fmt.Sprintf("%s/deposit/%d/reconcile", srv.URL, depositID),
		map[string]any{"ref": "tx-500"})
	if status != http.StatusOK {
		t.Fatalf("replay status = %d: %v", status, out)
	}
	if out["outcome"] != "already_done" {
		t.Fatalf("replay outcome = %v, want already_done", out["outcome"])
	}

	// Balance was credited exactly once.
	status, out = doJSON(t, http.MethodGet, srv.URL+"/account/500/balance", nil)
	if status != http.StatusOK {
		t.Fatalf("balance status = %d: %v", status, out)
	}
	if out["balance"] != "50.00" {
		t.Fatalf("balance = %v, want 50.00", out["balance"])
	}
}

func TestConcurrentReconcileOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	status, dep := doJSON(t, http.MethodPost, srv.URL+"/account/600/deposit",
		map[string]any{"amount": "50", "channel": "onchain"})
	if status != http.StatusCreated {
		t.Fatalf("create status = %d: %v", status, dep)
	}
	depositID := int64(dep["depositId"].(float64))

	const callers = 6
	outcomes := make([]string, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, out := doJSON(t, http.MethodPost, fmt.Sprintf("%s/deposit/%d/reconcile", srv.URL, depositID),
				map[string]any{"ref": "tx-600"})
			if code == http.StatusOK {
				outcomes[i], _ = out["outcome"].(string)
			}
		}()
	}
	wg.Wait()

	confirmed := 0
	for _, o := range outcomes {
		if o == "newly_confirmed" {
			confirmed++
		}
	}
	if confirmed != 1 {
		t.Fatalf("newly_confirmed count = %d, want exactly 1 (outcomes %v)", confirmed, outcomes)
	}

	_, out := doJSON(t, http.MethodGet, srv.URL+"/account/600/balance", nil)
	if out["balance"] != "50.00" {
		t.Fatalf("balance = %v, want 50.00 credited once", out["balance"])
	}
}

func TestCreateOrderRequiresFunds(t *testing.T) {
	srv := newTestServer(t)

	// No deposit yet; the purchase must bounce.
	status, out := doJSON(t, http.MethodPost, srv.URL+"/order", map[string]any{
		"accountId":   700,
		"protocol":    "wg",
		"configCount": 1,
		"price":       "30.00",
		"months":      1,
	})
	if status != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %v", status, out)
	}

	// Fund the account and retry.
	_, dep := doJSON(t, http.MethodPost, srv.URL+"/account/700/deposit",
		map[string]any{"amount": "100.00", "channel": "gateway"})
	depositID := int64(dep["depositId"].(float64))
	status, out = doJSON(t, http.MethodPost, fmt.Sprintf("%s/deposit/%d/reconcile", srv.URL, depositID),
		map[string]any{"ref": "tx-700"})
	if status != http.StatusOK {
		t.Fatalf("reconcile status = %d: %v", status, out)
	}

	status, order := doJSON(t, http.MethodPost, srv.URL+"/order", map[string]any{
		"accountId":   700,
		"protocol":    "wg",
		"configCount": 1,
		"price":       "30.00",
		"months":      1,
	})
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %v", status, order)
	}
	if order["status"] != "pending" {
		t.Fatalf("order status = %v, want pending", order["status"])
	}

	_, out = doJSON(t, http.MethodGet, srv.URL+"/account/700/balance", nil)
	if out["balance"] != "70.00" {
		t.Fatalf("balance = %v, want 70.00 after purchase", out["balance"])
	}
}

func TestUnknownDepositIs404(t *testing.T) {
	srv := newTestServer(t)

	status, _ := doJSON(t, http.MethodGet, srv.URL+"/deposit/999999", nil)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}

	// Reconciling an unknown id is 404 too, also when the caller supplies
	// the amount.
	status, out := doJSON(t, http.MethodPost, srv.URL+"/deposit/999999/reconcile",
		map[string]any{"ref": "tx-x", "amount": "50.00"})
	if status != http.StatusNotFound {
		t.Fatalf("reconcile status = %d, want 404: %v", status, out)
	}
}

func TestNegativeDepositAmountRejected(t *testing.T) {
	srv := newTestServer(t)

	status, out := doJSON(t, http.MethodPost, srv.URL+"/account/800/deposit",
		map[string]any{"amount": "-0.50", "channel": "gateway"})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %v", status, out)
	}
}
