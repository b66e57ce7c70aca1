package keylock

import (
	"testing"
	"time"
)

func TestKeyLock(t *testing.T) {
	locker := NewKeyLock[string]()

	h := locker.Lock("a", time.Second, time.Minute)

	startedWaiting := time.Now()
	go func(lh int64) {
		time.Sleep(time.Second)
		locker.Unlock("a", lh)
	}(h)

	h2 := locker.Lock("a", time.Minute, time.Minute)
	locker.Unlock("a", h2)

	if time.Since(startedWaiting) < time.Second {
		t.Error("Did not wait a second before locking key ", time.Since(startedWaiting))
	}
}

func TestKeyLockTimeout(t *testing.T) {
	locker := NewKeyLock[string]()

	h := locker.Lock("a", time.Second, time.Minute)
	if h == -1 {
		t.Fatal("failed locking unheld key")
	}

	h2 := locker.Lock("a", time.Millisecond*100, time.Minute)
	if h2 != -1 {
		t.Error("locked an already held key, handle ", h2)
	}

	locker.Unlock("a", h)
}

func TestKeyLockTTLExpiry(t *testing.T) {
	locker := NewKeyLock[string]()

	locker.Lock("a", time.Second, time.Millisecond*100)

	// the first holder never unlocks, the ttl frees the key
	h2 := locker.Lock("a", time.Second, time.Minute)
	if h2 == -1 {
		t.Fatal("failed locking key after ttl expired")
	}

	locker.Unlock("a", h2)
}

func TestKeyLockIndependentKeys(t *testing.T) {
	locker := NewKeyLock[string]()

	h1 := locker.Lock("a", time.Second, time.Minute)
	h2 := locker.Lock("b", time.Second, time.Minute)

	if h1 == -1 || h2 == -1 {
		t.Fatal("locking independent keys should not block")
	}

	locker.Unlock("a", h1)
	locker.Unlock("b", h2)
}

func BenchmarkKeyLock(b *testing.B) {
	locker := NewKeyLock[string]()

	for i := 0; i < b.N; i++ {
		h := locker.Lock("a", time.Minute, time.Minute)
		locker.Unlock("a", h)
	}
}
