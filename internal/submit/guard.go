// Package submit prevents double submission of mutating actions.
//
// A Guard holds one "in flight" flag per key. The flag is set synchronously
// before the network call starts and cleared when it returns, so a second tap
// on the same button while the first request is outstanding is rejected
// without touching the network.
package submit

import (
	"context"
	"sync"

	"github.com/sakif/hangang/internal/apperror"
)

type Guard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{inFlight: make(map[string]struct{})}
}

// TryAcquire sets the flag for key. It returns false if the flag was
// already set.
func (g *Guard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[key]; busy {
		return false
	}
	g.inFlight[key] = struct{}{}
	return true
}

func (g *Guard) Release(key string) {
	g.mu.Lock()
	delete(g.inFlight, key)
	g.mu.Unlock()
}

// Busy reports whether key is in flight. UIs use it to disable a button.
func (g *Guard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inFlight[key]
	return busy
}

// Do runs fn while holding the flag for key. If key is already in flight it
// returns apperror.ErrInFlight and fn is not called.
func (g *Guard) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if !g.TryAcquire(key) {
		return apperror.InFlight(key)
	}
	defer g.Release(key)
	return fn(ctx)
}
