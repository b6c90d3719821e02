// File: mm/stacks_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mm

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-sched/api"
)

func TestArenaAllocRelease(t *testing.T) {
	a := NewArena(0)

	s, err := a.AllocStack(4096)
	if err != nil {
		t.Fatalf("AllocStack: %v", err)
	}
	if s.Size() != 4096 {
		t.Fatalf("usable size = %d, want 4096", s.Size())
	}
	if a.Used() != 4096 {
		t.Fatalf("used = %d, want 4096", a.Used())
	}

	a.ReleaseStack(s, 4096)
	if a.Used() != 0 {
		t.Fatalf("used = %d after release, want 0", a.Used())
	}
}

func TestArenaRecycles(t *testing.T) {
	a := NewArena(0)

	s1, _ := a.AllocStack(8192)
	a.ReleaseStack(s1, 8192)
	s2, err := a.AllocStack(8192)
	if err != nil {
		t.Fatalf("AllocStack after release: %v", err)
	}
	if s1 != s2 {
		t.Fatal("same-size allocation did not recycle the freed stack")
	}
}

func TestArenaBudget(t *testing.T) {
	a := NewArena(16 * 1024)

	s1, err := a.AllocStack(12 * 1024)
	if err != nil {
		t.Fatalf("first alloc: %v", err)
	}
	if _, err := a.AllocStack(8 * 1024); !errors.Is(err, api.ErrResourceExhausted) {
		t.Fatalf("over-budget alloc: err = %v, want ErrResourceExhausted", err)
	}

	a.ReleaseStack(s1, 12*1024)
	if _, err := a.AllocStack(8 * 1024); err != nil {
		t.Fatalf("alloc after release: %v", err)
	}
}

func TestArenaGuardCorruptionDropsRegion(t *testing.T) {
	a := NewArena(0)

	s, _ := a.AllocStack(1024)
	raw := s.(*Stack)
	raw.mem[0] = 0x00 // smash the low guard band

	a.ReleaseStack(s, 1024)
	if a.Used() != 0 {
		t.Fatalf("used = %d, want 0", a.Used())
	}

	s2, err := a.AllocStack(1024)
	if err != nil {
		t.Fatalf("AllocStack: %v", err)
	}
	if s2 == s {
		t.Fatal("corrupted region was recycled")
	}
}

func TestArenaRejectsBadSize(t *testing.T) {
	a := NewArena(0)
	if _, err := a.AllocStack(0); !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}
