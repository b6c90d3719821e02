// File: arch/continuation_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package arch

import (
	"testing"
	"time"
)

func TestSwitchRoundTrip(t *testing.T) {
	var order []string
	main := AdoptCurrent()

	var task *Continuation
	task = NewContinuation(func() {
		order = append(order, "task")
		Handoff(main) // final switch: the task is done
	})

	if task.Started() {
		t.Fatal("fresh continuation reports started")
	}
	order = append(order, "before")
	Switch(main, task)
	order = append(order, "after")

	if !task.Started() {
		t.Fatal("resumed continuation reports not started")
	}
	want := []string{"before", "task", "after"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestSwitchPingPong(t *testing.T) {
	main := AdoptCurrent()
	sum := 0

	var task *Continuation
	task = NewContinuation(func() {
		for i := 0; i < 10; i++ {
			sum++
			Switch(task, main)
		}
		Handoff(main)
	})

	for i := 0; i < 10; i++ {
		Switch(main, task)
	}
	Switch(main, task) // final resume lets the loop exit

	if sum != 10 {
		t.Fatalf("sum = %d, want 10", sum)
	}
}

func TestSwitchToSelf(t *testing.T) {
	done := make(chan struct{})
	go func() {
		self := AdoptCurrent()
		Switch(self, self)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("self-switch deadlocked")
	}
}

func TestHandoffDoesNotParkCaller(t *testing.T) {
	main := AdoptCurrent()
	ran := false
	task := NewContinuation(func() {
		ran = true
		Handoff(main)
	})
	Switch(main, task)
	if !ran {
		t.Fatal("task never ran")
	}
}
