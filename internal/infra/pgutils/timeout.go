package pgutils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrStorageTimeout reports that a storage operation hit its bounded wait.
// Background jobs retry on the next pass; interactive callers abort. No
// partial write occurred: each repo operation is a single statement or a
// transaction that rolled back.
var ErrStorageTimeout = errors.New("storage operation timed out")

// Bound derives a context whose deadline caps one storage operation.
// Every repo method goes through this; an unbounded storage access is not
// constructible.
func Bound(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}

// WrapTimeout converts a deadline hit into ErrStorageTimeout so callers can
// test with errors.Is without caring which driver layer gave up first.
func WrapTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStorageTimeout, err)
	}
	return err
}
