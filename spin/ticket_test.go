// File: spin/ticket_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package spin

import (
	"runtime"
	"sync"
	"testing"

	"github.com/momentics/hioload-sched/api"
)

func TestLockMutualExclusion(t *testing.T) {
	var l Lock
	const workers = 8
	const rounds = 2000

	counter := 0
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id api.TaskID) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				l.Lock(id)
				counter++
				l.Unlock()
			}
		}(api.TaskID(w))
	}
	wg.Wait()

	if counter != workers*rounds {
		t.Fatalf("lost increments: got %d, want %d", counter, workers*rounds)
	}
	if l.Locked() {
		t.Fatal("lock still held after all workers finished")
	}
}

func TestLockRecursion(t *testing.T) {
	var l Lock
	const owner = api.TaskID(7)

	l.Lock(owner)
	l.Lock(owner)
	l.Lock(owner)
	if got := l.Holder(); got != owner {
		t.Fatalf("holder = %d, want %d", got, owner)
	}
	l.Unlock()
	l.Unlock()
	if !l.Locked() {
		t.Fatal("lock released before matching unlock count")
	}
	l.Unlock()

	if l.Locked() {
		t.Fatal("lock held after final unlock")
	}
	if got := l.Holder(); got != api.NoTask {
		t.Fatalf("holder = %d after release, want NoTask", got)
	}
}

func TestLockZeroOwnerNotConfusedWithUnowned(t *testing.T) {
	var l Lock

	// Task 0 must not see an unlocked lock as already owned by itself.
	l.Lock(api.TaskID(0))
	l.Unlock()
	l.Lock(api.TaskID(0))
	if got := l.Holder(); got != api.TaskID(0) {
		t.Fatalf("holder = %d, want 0", got)
	}
	l.Unlock()
}

func TestLockAnonymousCallers(t *testing.T) {
	var l Lock
	counter := 0
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				l.Lock(api.NoTask)
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()
	if counter != 4000 {
		t.Fatalf("lost increments: got %d, want 4000", counter)
	}
}

func TestLockGrantsInTicketOrder(t *testing.T) {
	var l Lock
	const waiters = 8

	// Hold the lock while staging waiters one by one. Each waiter has
	// observably taken its ticket (and started spinning) before the next
	// one is launched, so the take order is fixed.
	l.Lock(api.TaskID(100))

	order := make(chan api.TaskID, waiters)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(id api.TaskID) {
			defer wg.Done()
			l.Lock(id)
			order <- id
			l.Unlock()
		}(api.TaskID(i))
		for l.ticket.Load() != uint64(i+2) {
			runtime.Gosched()
		}
	}

	l.Unlock()
	wg.Wait()

	for i := 0; i < waiters; i++ {
		if got := <-order; got != api.TaskID(i) {
			t.Fatalf("grant %d went to task %d", i, got)
		}
	}
}
