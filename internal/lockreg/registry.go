// Package lockreg serializes mutating operations per order.
//
// One mutex exists per order id, created on first use. Left alone the table
// only grows, so a periodic Cleanup drops entries whose orders have reached
// a terminal status. Cleanup is threshold-gated: below the threshold it does
// not even query the store.
package lockreg

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// LiveSource reports which order ids are still in a live status.
// Satisfied by the orders repo.
type LiveSource interface {
	LiveIDs(ctx context.Context) ([]int64, error)
}

type entry struct {
	mu sync.Mutex
	// holders counts the current holder plus queued waiters. An entry with
	// holders > 0 is in use and must survive cleanup.
	holders int
}

type Registry struct {
	src       LiveSource
	threshold int

	mu      sync.Mutex
	entries map[int64]*entry
}

// Handle is a held lock. Release it exactly once.
type Handle struct {
	r *Registry
	e *entry
}

func New(src LiveSource, threshold int) *Registry {
	return &Registry{
		src:       src,
		threshold: threshold,
		entries:   make(map[int64]*entry),
	}
}

// Acquire blocks until the per-order lock is available and returns the held
// handle. For a given order id at most one caller is inside the protected
// section at a time, process-wide.
func (r *Registry) Acquire(orderID int64) *Handle {
	r.mu.Lock()
	e, ok := r.entries[orderID]
	if !ok {
		e = &entry{}
		r.entries[orderID] = e
	}
	e.holders++
	r.mu.Unlock()

	e.mu.Lock()

	return &Handle{r: r, e: e}
}

func (h *Handle) Release() {
	h.e.mu.Unlock()

	h.r.mu.Lock()
	h.e.holders--
	h.r.mu.Unlock()
}

// Len reports the current number of registry entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Cleanup removes idle entries whose orders are no longer live. Below the
// size threshold it is a no-op and performs no storage query. Entries that
// are held or contended stay regardless of order status.
func (r *Registry) Cleanup(ctx context.Context) (int, error) {
	before := r.Len()
	if before < r.threshold {
		return 0, nil
	}

	liveIDs, err := r.src.LiveIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("query live order ids: %w", err)
	}

	live := make(map[int64]bool, len(liveIDs))
	for _, id := range liveIDs {
		live[id] = true
	}

	removed := 0

	r.mu.Lock()
	for id, e := range r.entries {
		if e.holders == 0 && !live[id] {
			delete(r.entries, id)
			removed++
		}
	}
	after := len(r.entries)
	r.mu.Unlock()

	slog.Info("lock registry cleanup",
		"before", before,
		"after", after,
		"removed", removed,
	)

	return removed, nil
}
