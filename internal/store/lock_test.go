package store

import (
	"sync"
	"testing"
)

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	km := NewKeyedMutex()
	counters := map[string]int{"a": 0, "b": 0}
	var mapMu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		key := "a"
		if i%2 == 1 {
			key = "b"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock(key)
			defer unlock()

			mapMu.Lock()
			v := counters[key]
			mapMu.Unlock()

			// Read-modify-write split across two critical sections of mapMu;
			// only the keyed lock keeps it atomic.
			mapMu.Lock()
			counters[key] = v + 1
			mapMu.Unlock()
		}()
	}
	wg.Wait()

	if counters["a"] != 100 || counters["b"] != 100 {
		t.Errorf("counters = %v, want 100 each", counters)
	}
	if n := km.active(); n != 0 {
		t.Errorf("%d keys still tracked after all unlocks", n)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()
	unlockA := km.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := km.Lock("b")
		unlock()
		close(done)
	}()
	<-done
}
