package orders_test

import (
	"context"
	"testing"
	"time"

	reposorders "github.com/dchirkin/provcore/internal/repos/orders"
)

func TestExpireDuePassFlipsAndNotifies(t *testing.T) {
	svc, db, notifier := newService(t, &fakeScripts{})
	ctx := context.Background()

	seedAccount(t, db, 31, 0)
	overdue := seedOrder(t, db, 31, reposorders.StatusActive, time.Now().Add(-time.Hour), false, 3000)
	current := seedOrder(t, db, 31, reposorders.StatusActive, time.Now().Add(240*time.Hour), false, 3000)

	if err := svc.ExpireDue(ctx); err != nil {
		t.Fatalf("expire pass: %v", err)
	}

	if got := orderStatus(t, db, overdue); got != reposorders.StatusExpired {
		t.Fatalf("overdue status = %q, want expired", got)
	}
	if got := orderStatus(t, db, current); got != reposorders.StatusActive {
		t.Fatalf("current status = %q, want active", got)
	}
	if notifier.count(31) != 1 {
		t.Fatalf("owner notifications = %d, want 1", notifier.count(31))
	}

	// Second pass finds nothing and stays quiet.
	if err := svc.ExpireDue(ctx); err != nil {
		t.Fatalf("second expire pass: %v", err)
	}
	if notifier.count(31) != 1 {
		t.Fatalf("owner notifications after second pass = %d, want still 1", notifier.count(31))
	}
}

func TestCheckRenewalsAutoRenewChargesAndExtends(t *testing.T) {
	svc, db, notifier := newService(t, &fakeScripts{})
	ctx := context.Background()

	seedAccount(t, db, 41, 5000)
	expiry := time.Now().Add(24 * time.Hour).UTC()
	orderID := seedOrder(t, db, 41, reposorders.StatusActive, expiry, true, 3000)

	if err := svc.CheckRenewals(ctx); err != nil {
		t.Fatalf("renewal pass: %v", err)
	}

	if got := accountBalance(t, db, 41); got != 2000 {
		t.Fatalf("balance = %d, want 2000 after renewal charge", got)
	}

	o, err := svc.Get(ctx, orderID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !o.ExpiresAt.After(expiry.Add(27 * 24 * time.Hour)) {
		t.Fatalf("expiry = %v, want pushed out about a month from %v", o.ExpiresAt, expiry)
	}
	if notifier.count(41) != 1 {
		t.Fatalf("owner notifications = %d, want 1", notifier.count(41))
	}
}

func TestCheckRenewalsInsufficientBalanceSendsReminder(t *testing.T) {
	svc, db, notifier := newService(t, &fakeScripts{})
	ctx := context.Background()

	seedAccount(t, db, 42, 500)
	expiry := time.Now().Add(24 * time.Hour).UTC()
	orderID := seedOrder(t, db, 42, reposorders.StatusActive, expiry, true, 3000)

	if err := svc.CheckRenewals(ctx); err != nil {
		t.Fatalf("renewal pass: %v", err)
	}

	if got := accountBalance(t, db, 42); got != 500 {
		t.Fatalf("balance = %d, want untouched 500", got)
	}

	o, err := svc.Get(ctx, orderID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d := o.ExpiresAt.Sub(expiry); d < -time.Second || d > time.Second {
		t.Fatalf("expiry = %v, want unchanged %v", o.ExpiresAt, expiry)
	}
	if notifier.count(42) != 1 {
		t.Fatalf("owner notifications = %d, want 1 reminder", notifier.count(42))
	}
}

func TestCheckRenewalsManualOrderGetsReminderOnly(t *testing.T) {
	svc, db, notifier := newService(t, &fakeScripts{})
	ctx := context.Background()

	seedAccount(t, db, 43, 100_000)
	seedOrder(t, db, 43, reposorders.StatusActive, time.Now().Add(24*time.Hour), false, 3000)

	if err := svc.CheckRenewals(ctx); err != nil {
		t.Fatalf("renewal pass: %v", err)
	}

	if got := accountBalance(t, db, 43); got != 100_000 {
		t.Fatalf("balance = %d, want untouched", got)
	}
	if notifier.count(43) != 1 {
		t.Fatalf("owner notifications = %d, want 1 reminder", notifier.count(43))
	}
}

func TestCheckRenewalsIgnoresOrdersOutsideWindow(t *testing.T) {
	svc, db, notifier := newService(t, &fakeScripts{})
	ctx := context.Background()

	seedAccount(t, db, 44, 100_000)
	seedOrder(t, db, 44, reposorders.StatusActive, time.Now().Add(30*24*time.Hour), true, 3000)

	if err := svc.CheckRenewals(ctx); err != nil {
		t.Fatalf("renewal pass: %v", err)
	}

	if got := accountBalance(t, db, 44); got != 100_000 {
		t.Fatalf("balance = %d, want untouched", got)
	}
	if notifier.count(44) != 0 {
		t.Fatalf("owner notifications = %d, want 0", notifier.count(44))
	}
}
