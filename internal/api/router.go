package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dchirkin/provcore/internal/services/orders"
	"github.com/dchirkin/provcore/internal/services/reconcile"
)

// NewRouter registers every operator endpoint.
func NewRouter(rec *reconcile.Service, ord *orders.Service) http.Handler {
	h := NewHandler(rec, ord)
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/account/{accountId}/balance", h.GetBalanceHandler)
	r.Post("/account/{accountId}/deposit", h.CreateDepositHandler)

	r.Get("/deposit/{depositId}", h.GetDepositHandler)
	r.Post("/deposit/{depositId}/reconcile", h.ReconcileDepositHandler)

	r.Post("/order", h.CreateOrderHandler)
	r.Get("/order/{orderId}", h.GetOrderHandler)
	r.Post("/order/{orderId}/provision", h.ProvisionOrderHandler)
	r.Post("/order/{orderId}/terminate", h.TerminateOrderHandler)

	return r
}
