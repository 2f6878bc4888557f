package engine

import (
	"context"
	"sync"
)

// keyedMutex serializes operations that share a key while leaving unrelated
// keys independent. Waiters on one key acquire in arrival order, so a
// membership check queued behind an in-flight write for the same
// (playlist, track) pair observes the write's outcome.
//
// Lock returns a release handle. The per-key chain entry is dropped once the
// last holder releases, so the map only grows while keys are contended.
type keyedMutex struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{tails: make(map[string]chan struct{})}
}

// lock blocks until every earlier holder of key has released, then returns a
// release function. The release function is idempotent. When ctx ends while
// waiting, the slot is abandoned but handed through to later waiters so the
// chain never wedges.
func (k *keyedMutex) lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	prev := k.tails[key]
	turn := make(chan struct{})
	k.tails[key] = turn
	k.mu.Unlock()

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			go func() {
				<-prev
				k.handoff(key, turn)
			}()
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			k.handoff(key, turn)
		})
	}

	return release, nil
}

// handoff closes turn so the next waiter proceeds, removing the chain entry
// when turn is still the tail.
func (k *keyedMutex) handoff(key string, turn chan struct{}) {
	k.mu.Lock()
	if k.tails[key] == turn {
		delete(k.tails, key)
	}
	k.mu.Unlock()

	close(turn)
}
