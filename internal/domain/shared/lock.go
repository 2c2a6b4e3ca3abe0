package shared

import (
	"context"

	"github.com/google/uuid"
)

// UnlockFunc releases a lock obtained from a KeyedLocker
type UnlockFunc func()

// KeyedLocker serializes work per key without blocking unrelated keys.
// Lock blocks until the key is free or ctx is done.
type KeyedLocker interface {
	Lock(ctx context.Context, key string) (UnlockFunc, error)
}

// CustomerLockKey is the lock key guarding every mutation of one customer's data
func CustomerLockKey(customerID uuid.UUID) string {
	return "customer:" + customerID.String()
}
