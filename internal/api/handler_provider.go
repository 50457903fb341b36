package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dchirkin/provcore/internal/repos/accounts"
	"github.com/dchirkin/provcore/internal/repos/deposits"
	reposorders "github.com/dchirkin/provcore/internal/repos/orders"
	"github.com/dchirkin/provcore/internal/services/orders"
	"github.com/dchirkin/provcore/internal/services/reconcile"
)

// HandlerProvider exposes the operator endpoints over the two services.
// Callers get generic error messages; the detail goes to the log.
type HandlerProvider struct {
	rec *reconcile.Service
	ord *orders.Service
}

func NewHandler(rec *reconcile.Service, ord *orders.Service) *HandlerProvider {
	return &HandlerProvider{rec: rec, ord: ord}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		http.Error(w, `{"error":"internal json encode failure"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}

	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("empty body")
	}

	return err
}

// parseAmountMinor converts a decimal string with up to 2 fractional digits
// into minor units. Amounts are unsigned; any leading sign is rejected.
func parseAmountMinor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount required")
	}
	if s[0] == '+' || s[0] == '-' {
		return 0, fmt.Errorf("amount must be positive")
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("invalid amount")
	}

	frac := "00"
	if len(parts) == 2 {
		if len(parts[1]) > 2 {
			return 0, fmt.Errorf("amount supports up to 2 decimals")
		}
		frac = parts[1] + strings.Repeat("0", 2-len(parts[1]))
	}

	ip, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount integer")
	}
	fp, err := strconv.ParseUint(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount fractional")
	}

	if ip > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("amount too large")
	}

	total := int64(ip)*100 + int64(fp)
	if total <= 0 {
		return 0, fmt.Errorf("amount must be > 0")
	}

	return total, nil
}

func depositResponse(d deposits.Deposit) map[string]any {
	resp := map[string]any{
		"depositId":   d.ID,
		"accountId":   d.AccountID,
		"amountMinor": d.AmountMinor,
		"channel":     d.Channel,
		"status":      d.Status,
		"createdAt":   d.CreatedAt,
	}
	if d.ExtRef != "" {
		resp["extRef"] = d.ExtRef
	}
	if !d.ConfirmedAt.IsZero() {
		resp["confirmedAt"] = d.ConfirmedAt
	}
	return resp
}

func orderResponse(o reposorders.Order) map[string]any {
	resp := map[string]any{
		"orderId":     o.ID,
		"accountId":   o.AccountID,
		"protocol":    o.Protocol,
		"configCount": o.ConfigCount,
		"priceMinor":  o.PriceMinor,
		"months":      o.Months,
		"autoRenew":   o.AutoRenew,
		"status":      o.Status,
		"createdAt":   o.CreatedAt,
	}
	if o.ServerHost != "" {
		resp["serverHost"] = o.ServerHost
	}
	if !o.ExpiresAt.IsZero() {
		resp["expiresAt"] = o.ExpiresAt
	}
	return resp
}

// --- Account handlers ---

// GetBalanceHandler handles GET /account/{accountId}/balance
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "accountId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountId in path")
		return
	}

	bal, err := h.rec.GetBalance(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		slog.Error("get balance failed", "account_id", accountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accountId": accountID,
		"balance":   fmt.Sprintf("%d.%02d", bal/100, bal%100),
	})
}

// --- Deposit handlers ---

type createDepositRequest struct {
	Amount  string `json:"amount"`
	Channel string `json:"channel"`
}

// CreateDepositHandler handles POST /account/{accountId}/deposit
func (h *HandlerProvider) CreateDepositHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "accountId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountId in path")
		return
	}

	var req createDepositRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var channel deposits.Channel
	switch strings.ToLower(strings.TrimSpace(req.Channel)) {
	case "onchain":
		channel = deposits.ChannelOnChain
	case "gateway":
		channel = deposits.ChannelGateway
	default:
		writeError(w, http.StatusBadRequest, "invalid channel")
		return
	}

	dep, err := h.rec.CreateDeposit(r.Context(), accountID, amount, channel)
	if err != nil {
		slog.Error("create deposit failed", "account_id", accountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, depositResponse(dep))
}

// GetDepositHandler handles GET /deposit/{depositId}
func (h *HandlerProvider) GetDepositHandler(w http.ResponseWriter, r *http.Request) {
	depositID, err := pathID(r, "depositId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid depositId in path")
		return
	}

	dep, err := h.rec.GetDeposit(r.Context(), depositID)
	if err != nil {
		if errors.Is(err, deposits.ErrDepositNotFound) {
			writeError(w, http.StatusNotFound, "deposit not found")
			return
		}
		slog.Error("get deposit failed", "deposit_id", depositID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, depositResponse(dep))
}

type reconcileRequest struct {
	Ref    string `json:"ref"`
	Amount string `json:"amount"`
}

// ReconcileDepositHandler handles POST /deposit/{depositId}/reconcile.
// The manual path for payments observed out of band; same idempotent
// transition as the periodic pass, so replays and concurrent submissions
// are safe.
func (h *HandlerProvider) ReconcileDepositHandler(w http.ResponseWriter, r *http.Request) {
	depositID, err := pathID(r, "depositId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid depositId in path")
		return
	}

	var req reconcileRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Ref == "" {
		writeError(w, http.StatusBadRequest, "ref required")
		return
	}

	// Resolve the deposit first: the conditional write alone cannot tell an
	// unknown id apart from an already finished transition.
	dep, err := h.rec.GetDeposit(r.Context(), depositID)
	if err != nil {
		if errors.Is(err, deposits.ErrDepositNotFound) {
			writeError(w, http.StatusNotFound, "deposit not found")
			return
		}
		slog.Error("load deposit failed", "deposit_id", depositID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	amount := dep.AmountMinor
	if req.Amount != "" {
		amount, err = parseAmountMinor(req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	outcome, err := h.rec.Reconcile(r.Context(), depositID, req.Ref, amount)
	if err != nil {
		slog.Error("manual reconcile failed", "deposit_id", depositID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"outcome": outcome.String()})
}

// --- Order handlers ---

type createOrderRequest struct {
	AccountID   int64  `json:"accountId"`
	Protocol    string `json:"protocol"`
	ConfigCount int    `json:"configCount"`
	Price       string `json:"price"`
	Months      int    `json:"months"`
	AutoRenew   bool   `json:"autoRenew"`
}

// CreateOrderHandler handles POST /order
func (h *HandlerProvider) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.AccountID <= 0 {
		writeError(w, http.StatusBadRequest, "accountId required")
		return
	}
	if req.ConfigCount <= 0 || req.Months <= 0 {
		writeError(w, http.StatusBadRequest, "configCount and months must be positive")
		return
	}

	price, err := parseAmountMinor(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.ord.Create(r.Context(), reposorders.Order{
		AccountID:   req.AccountID,
		Protocol:    strings.ToLower(strings.TrimSpace(req.Protocol)),
		ConfigCount: req.ConfigCount,
		PriceMinor:  price,
		Months:      req.Months,
		AutoRenew:   req.AutoRenew,
	})
	if err != nil {
		if errors.Is(err, accounts.ErrInsufficientFunds) {
			writeError(w, http.StatusConflict, "insufficient funds")
			return
		}
		slog.Error("create order failed", "account_id", req.AccountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, orderResponse(o))
}

// GetOrderHandler handles GET /order/{orderId}
func (h *HandlerProvider) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid orderId in path")
		return
	}

	o, err := h.ord.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, reposorders.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		slog.Error("get order failed", "order_id", orderID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, orderResponse(o))
}

// ProvisionOrderHandler handles POST /order/{orderId}/provision.
// Provisioning runs for up to tens of minutes, so the request only starts
// it; progress lands in order state and notifications.
func (h *HandlerProvider) ProvisionOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid orderId in path")
		return
	}

	o, err := h.ord.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, reposorders.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		slog.Error("get order failed", "order_id", orderID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if o.Status != reposorders.StatusPending {
		writeError(w, http.StatusConflict, "order is not pending")
		return
	}

	go func() {
		// Detached from the request; the script budget is the only bound.
		if err := h.ord.Provision(context.WithoutCancel(r.Context()), orderID); err != nil {
			slog.Error("provisioning run failed", "order_id", orderID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// TerminateOrderHandler handles POST /order/{orderId}/terminate
func (h *HandlerProvider) TerminateOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid orderId in path")
		return
	}

	err = h.ord.Terminate(r.Context(), orderID)
	switch {
	case errors.Is(err, reposorders.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, orders.ErrNotLive):
		writeError(w, http.StatusConflict, "order is not live")
	case err != nil:
		slog.Error("terminate failed", "order_id", orderID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "terminated"})
	}
}
