package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates session access across replicas sharing one
// snapshot store. Single-instance deployments do not need one; the session
// manager's in-process locks suffice there.
type DistributedLocker interface {
	// Lock blocks until the lock for key is acquired or ctx is canceled.
	// The returned UnlockFunc must be called to release it; the TTL bounds
	// the damage of a crashed holder.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
