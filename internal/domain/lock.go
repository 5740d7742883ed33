package domain

import "context"

// KeyLocker serializes work on a single instrument. Acquire is non-blocking:
// it returns ErrLockHeld immediately when the key is already locked. On
// success it returns a release function that must be called on every exit
// path and is safe to call more than once.
type KeyLocker interface {
	Acquire(ctx context.Context, key string) (func(), error)

	// Held reports whether key is currently locked. The answer is advisory:
	// it can be stale by the time the caller acts on it.
	Held(key string) bool
}
