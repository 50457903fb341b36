package accounts

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dchirkin/provcore/internal/infra/pgtestutil"
)

func seedAccount(t *testing.T, db *sql.DB, id int64, balance int64) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO accounts (id, balance) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET balance = EXCLUDED.balance
	`, id, balance)
	if err != nil {
		t.Fatalf("seed account(%d): %v", id, err)
	}
}

func TestAccounts_Credit_Basic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		start       int64
		amount      int64
		wantBalance int64
	}{
		{name: "credit_from_zero", start: 0, amount: 5_000, wantBalance: 5_000},
		{name: "credit_from_positive", start: 1_000, amount: 250, wantBalance: 1_250},
		{name: "credit_large_balance", start: 900_000_000_000_000, amount: 123, wantBalance: 900_000_000_000_123},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			const accountID = 101
			seedAccount(t, db, accountID, tt.start)

			repo := New(db, 5*time.Second)

			ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
			defer cancel()

			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			defer func() { _ = tx.Rollback() }()

			err = repo.Credit(tx, accountID, tt.amount)
			if err != nil {
				t.Fatalf("credit: %v", err)
			}

			err = tx.Commit()
			if err != nil {
				t.Fatalf("commit: %v", err)
			}

			got, err := repo.GetBalance(ctx, accountID)
			if err != nil {
				t.Fatalf("get balance: %v", err)
			}
			if got != tt.wantBalance {
				t.Fatalf("balance mismatch: want %d, got %d", tt.wantBalance, got)
			}
		})
	}
}

func TestAccounts_Credit_ConcurrentAdds(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	const accountID = 777
	seedAccount(t, db, accountID, 0)

	repo := New(db, 5*time.Second)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	errCh := make(chan error, 2)

	worker := func(amount int64) {
		tx, e := db.BeginTx(ctx, nil)
		if e != nil {
			errCh <- e
			return
		}
		defer func() { _ = tx.Rollback() }()

		e = repo.Credit(tx, accountID, amount)
		if e != nil {
			errCh <- e
			return
		}
		errCh <- tx.Commit()
	}

	go worker(1_000)
	go worker(2_500)

	for i := 0; i < 2; i++ {
		select {
		case e := <-errCh:
			if e != nil {
				t.Fatalf("worker error: %v", e)
			}
		case <-ctx.Done():
			t.Fatal("timeout waiting for workers")
		}
	}

	got, err := repo.GetBalance(ctx, accountID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if want := int64(3_500); got != want {
		t.Fatalf("final balance mismatch: want %d, got %d", want, got)
	}
}
