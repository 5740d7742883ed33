// Package locks provides the in-process instrument execution lock. The bot is
// a single logical account in a single process, so a mutex-guarded map is
// sufficient; the domain.KeyLocker interface keeps the door open for a
// distributed implementation.
package locks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/alanyoungcy/swapsniper/internal/domain"
)

// KeyLock maps instrument keys to a holder token. At most one token exists
// per key at any time. Acquire never blocks: a second caller for the same key
// gets domain.ErrLockHeld immediately.
type KeyLock struct {
	mu     sync.Mutex
	tokens map[string]string
}

// NewKeyLock creates an empty KeyLock.
func NewKeyLock() *KeyLock {
	return &KeyLock{tokens: make(map[string]string)}
}

// Acquire takes the lock for key, returning a release function. The release
// function only deletes the entry if it still belongs to this holder, and is
// safe to call multiple times.
func (l *KeyLock) Acquire(_ context.Context, key string) (func(), error) {
	token := uuid.New().String()

	l.mu.Lock()
	if _, held := l.tokens[key]; held {
		l.mu.Unlock()
		return nil, domain.ErrLockHeld
	}
	l.tokens[key] = token
	l.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			if l.tokens[key] == token {
				delete(l.tokens, key)
			}
			l.mu.Unlock()
		})
	}
	return release, nil
}

// Held reports whether key is currently locked. Used by the monitor to skip
// instruments with an in-flight enter/exit without attempting acquisition.
func (l *KeyLock) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, held := l.tokens[key]
	return held
}

// Compile-time interface check.
var _ domain.KeyLocker = (*KeyLock)(nil)
