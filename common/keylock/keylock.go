// Package keylock implements keyed locks with ttl's on them, used to
// serialize work per discord entity (e.g. per member) without holding a
// process wide lock.
package keylock

import (
	"sync"
	"time"
)

type bucket struct {
	expires time.Time
	handle  int64
}

type KeyLock[K comparable] struct {
	locks map[K]*bucket
	mu    sync.Mutex
	c     int64
}

func NewKeyLock[K comparable]() *KeyLock[K] {
	return &KeyLock[K]{
		locks: make(map[K]*bucket),
	}
}

// Lock attempts to lock the key for the given duration ttl, blocking until it
// succeeds or timeout passes, in which case it returns -1.
//
// On success it returns a non-negative handle to pass to Unlock. The handle
// guards against unlocking a key whose lock has expired and has since been
// taken by another caller.
func (kl *KeyLock[K]) Lock(key K, timeout time.Duration, ttl time.Duration) (handle int64) {
	started := time.Now()

	for {
		if handle := kl.tryLock(key, ttl); handle != -1 {
			return handle
		}

		if time.Since(started) >= timeout {
			return -1
		}

		time.Sleep(time.Millisecond * 25)
	}
}

func (kl *KeyLock[K]) tryLock(key K, ttl time.Duration) int64 {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := time.Now()

	b, ok := kl.locks[key]
	if ok && b != nil && now.Before(b.expires) {
		return -1
	}

	kl.c++
	handle := kl.c
	kl.locks[key] = &bucket{
		handle:  handle,
		expires: now.Add(ttl),
	}

	return handle
}

func (kl *KeyLock[K]) Unlock(key K, handle int64) {
	kl.mu.Lock()
	if b, ok := kl.locks[key]; ok && b != nil && b.handle == handle {
		// only delete if the caller is the one holding the lock
		delete(kl.locks, key)
	}
	kl.mu.Unlock()
}
