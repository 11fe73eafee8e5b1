package syncutil

import (
	"sync"
	"testing"
)

func TestShardedMutex_SerializesSameKey(t *testing.T) {
	sm := NewShardedMutex()

	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := sm.Lock("txn_abc")
			counter++
			unlock()
		}()
	}

	wg.Wait()
	if counter != 100 {
		t.Errorf("Expected 100 increments, got %d", counter)
	}
}

func TestShardedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	sm := NewShardedMutex()

	unlockA := sm.Lock("txn_a")
	defer unlockA()

	// Probe keys until one lands on a different shard; locking it must not
	// block while txn_a is held.
	keys := []string{"txn_b", "txn_c", "txn_d", "txn_e", "txn_f"}
	for _, key := range keys {
		if sm.shard(key) == sm.shard("txn_a") {
			continue
		}
		done := make(chan struct{})
		go func() {
			unlock := sm.Lock(key)
			unlock()
			close(done)
		}()
		<-done
		return
	}
	t.Skip("all probe keys collided with txn_a's shard")
}

func TestShardedMutex_UnlockAllowsReacquire(t *testing.T) {
	sm := NewShardedMutex()

	unlock := sm.Lock("txn_x")
	unlock()

	// Reacquire must not deadlock.
	unlock = sm.Lock("txn_x")
	unlock()
}
