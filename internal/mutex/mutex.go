package mutex

import "context"

// Mutex is a lock shared by every process of the peer set.
type Mutex interface {
	// Acquire blocks until the local process may enter the critical section.
	// The returned release function must be called exactly once, when the
	// critical section is left.
	Acquire(ctx context.Context) (release func(), err error)
}
