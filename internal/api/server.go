package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dchirkin/provcore/internal/services/orders"
	"github.com/dchirkin/provcore/internal/services/reconcile"
)

// NewServer returns a configured *http.Server for the operator API.
func NewServer(port uint16, rec *reconcile.Service, ord *orders.Service) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewRouter(rec, ord),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
