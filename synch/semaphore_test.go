// File: synch/semaphore_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package synch

import (
	"errors"
	"testing"
	"time"

	"github.com/momentics/hioload-sched/api"
	"github.com/momentics/hioload-sched/arch"
	"github.com/momentics/hioload-sched/sched"
)

func newKernel(cores int) (*sched.Kernel, *api.MockClock) {
	clk := &api.MockClock{Freq: 100}
	var k *sched.Kernel
	mock := &api.MockIntController{
		WakeupFunc: func(core api.CoreID) { k.CPU(core).Signal(arch.SignalWakeup) },
	}
	k = sched.New(sched.Config{
		Cores:        cores,
		MaxTasks:     16,
		StackSize:    4096,
		IStackSize:   1024,
		TickFreq:     100,
		DynamicTicks: true,
		AutoShutdown: true,
	}, sched.WithClock(clk), sched.WithIntController(mock))
	return k, clk
}

func run(t *testing.T, k *sched.Kernel) {
	t.Helper()
	k.Start()
	done := make(chan struct{})
	go func() {
		k.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("kernel did not shut down")
	}
}

func TestSemaphorePostThenWaitNeverBlocks(t *testing.T) {
	k, _ := newKernel(1)
	var errs []error
	k.Boot(func(tc *sched.TaskContext, _ any) {
		s := NewSemaphore(1, 8)
		errs = append(errs, s.Wait(tc, 0)) // consumes the initial count
		errs = append(errs, s.TryWait(tc)) // now empty
		errs = append(errs, s.Post(tc))    // refill
		errs = append(errs, s.Wait(tc, 0)) // consumes the post
	}, nil, api.NormalPriority)
	run(t, k)

	if errs[0] != nil || errs[2] != nil || errs[3] != nil {
		t.Fatalf("errs = %v, want only TryWait to fail", errs)
	}
	if !errors.Is(errs[1], api.ErrWouldBlock) {
		t.Fatalf("TryWait on empty = %v, want ErrWouldBlock", errs[1])
	}
}

func TestSemaphoreProducerConsumer(t *testing.T) {
	k, _ := newKernel(1)
	const items = 20

	consumed := 0
	k.Boot(func(tc *sched.TaskContext, _ any) {
		s := NewSemaphore(0, 8)

		tc.CreateTask(func(tc2 *sched.TaskContext, _ any) {
			for i := 0; i < items; i++ {
				if s.Wait(tc2, 0) == nil {
					consumed++
				}
			}
		}, nil, api.HighPriority, 0)
		tc.Reschedule() // consumer runs until it blocks on the empty sem

		for i := 0; i < items; i++ {
			s.Post(tc)
			tc.Reschedule() // consumer preempts, takes the item, blocks again
		}
	}, nil, api.NormalPriority)
	run(t, k)

	if consumed != items {
		t.Fatalf("consumed = %d, want %d", consumed, items)
	}
}

func TestSemaphoreWaitTimeout(t *testing.T) {
	k, clk := newKernel(1)

	var early, werr error
	var blockedMidway bool
	k.Boot(func(tc *sched.TaskContext, _ any) {
		s := NewSemaphore(0, 8)

		id, _ := tc.CreateTask(func(tc2 *sched.TaskContext, _ any) {
			werr = s.Wait(tc2, 100)
		}, nil, api.HighPriority, 0)
		tc.Reschedule() // waiter blocks with a 100-tick timeout

		clk.Advance(50)
		k.CPU(0).Signal(arch.SignalTick)
		tc.Poll()
		if ti, err := k.GetTask(id); err == nil {
			blockedMidway = ti.Status() == api.StatusBlocked
		}

		clk.Advance(100)
		k.CPU(0).Signal(arch.SignalTick)
		tc.Poll() // waiter wakes, observes the expired deadline and fails

		early = s.TryWait(tc) // the count must be untouched by the timeout
	}, nil, api.NormalPriority)
	run(t, k)

	if !blockedMidway {
		t.Fatal("waiter woke before its timeout elapsed")
	}
	if !errors.Is(werr, api.ErrTimeout) {
		t.Fatalf("Wait = %v, want ErrTimeout", werr)
	}
	if !errors.Is(early, api.ErrWouldBlock) {
		t.Fatalf("TryWait after timeout = %v, want ErrWouldBlock (count untouched)", early)
	}
}

func TestSemaphoreFIFOWakeOrder(t *testing.T) {
	k, _ := newKernel(1)

	var order []string
	k.Boot(func(tc *sched.TaskContext, _ any) {
		s := NewSemaphore(0, 8)

		waiter := func(tc2 *sched.TaskContext, arg any) {
			if s.Wait(tc2, 0) == nil {
				order = append(order, arg.(string))
			}
		}
		tc.CreateTask(waiter, "first", api.HighPriority, 0)
		tc.CreateTask(waiter, "second", api.HighPriority, 0)
		tc.Reschedule() // both block, in creation order

		s.Post(tc)
		tc.Reschedule()
		s.Post(tc)
		tc.Reschedule()
	}, nil, api.NormalPriority)
	run(t, k)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("wake order = %v, want [first second]", order)
	}
}

func TestSemaphoreDestroyFailsWaiters(t *testing.T) {
	k, _ := newKernel(1)

	var werr error
	k.Boot(func(tc *sched.TaskContext, _ any) {
		s := NewSemaphore(0, 8)

		tc.CreateTask(func(tc2 *sched.TaskContext, _ any) {
			werr = s.Wait(tc2, 0)
		}, nil, api.HighPriority, 0)
		tc.Reschedule() // waiter blocks

		s.Destroy(tc)
		tc.Reschedule() // waiter wakes and sees the destroyed state

		if err := s.TryWait(tc); !errors.Is(err, api.ErrInvalidArgument) {
			werr = err
		}
	}, nil, api.NormalPriority)
	run(t, k)

	if !errors.Is(werr, api.ErrInvalidArgument) {
		t.Fatalf("Wait on destroyed = %v, want ErrInvalidArgument", werr)
	}
}

func TestSemaphoreCrossCore(t *testing.T) {
	k, _ := newKernel(2)
	const items = 10

	consumed := 0
	k.Boot(func(tc *sched.TaskContext, _ any) {
		s := NewSemaphore(0, 8)

		tc.CreateTask(func(tc2 *sched.TaskContext, _ any) {
			for i := 0; i < items; i++ {
				s.Post(tc2)
			}
		}, nil, api.NormalPriority, 1)

		for i := 0; i < items; i++ {
			if s.Wait(tc, 0) == nil {
				consumed++
			}
		}
	}, nil, api.NormalPriority)
	run(t, k)

	if consumed != items {
		t.Fatalf("consumed = %d, want %d", consumed, items)
	}
}
