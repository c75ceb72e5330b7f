package arena

import (
	"errors"
	"testing"
)

func TestClassFor(t *testing.T) {
	tests := []struct {
		size int
		want Class
	}{
		{0, ClassSmall},
		{SmallLimit, ClassSmall},
		{SmallLimit + 1, ClassLarge},
		{LargeLimit, ClassLarge},
		{LargeLimit + 1, ClassGeneral},
		{4096, ClassGeneral},
	}
	for _, tt := range tests {
		if got := ClassFor(tt.size); got != tt.want {
			t.Errorf("ClassFor(%d) = %v, want %v", tt.size, got, tt.want)
		}
	}
}

func TestAllocGetFree(t *testing.T) {
	a := New()
	h := a.Alloc(24, "first")
	if !h.IsValid() {
		t.Fatal("Alloc returned an invalid handle")
	}
	if h.Class() != ClassSmall {
		t.Errorf("class = %v, want small", h.Class())
	}
	got, ok := a.Get(h)
	if !ok || got != "first" {
		t.Fatalf("Get = %v, %v; want first, true", got, ok)
	}
	a.Free(h)
	if _, ok := a.Get(h); ok {
		t.Error("Get succeeded on a freed handle")
	}

	// The slot is reused with a new generation; the old handle stays stale.
	h2 := a.Alloc(24, "second")
	if h2.index != h.index {
		t.Errorf("slot not reused: got index %d, want %d", h2.index, h.index)
	}
	if h2.gen == h.gen {
		t.Error("generation not bumped on reuse")
	}
	if _, ok := a.Get(h); ok {
		t.Error("stale handle resolved after reuse")
	}
	a.Free(h2)
	if err := a.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestOversizeFallsBackToGeneral(t *testing.T) {
	a := New()
	h := a.Alloc(LargeLimit*4, 42)
	if h.Class() != ClassGeneral {
		t.Errorf("class = %v, want general", h.Class())
	}
	if v, ok := a.Get(h); !ok || v != 42 {
		t.Errorf("Get = %v, %v", v, ok)
	}
	a.Free(h)
	if a.Live() != 0 {
		t.Errorf("Live() = %d, want 0", a.Live())
	}
}

func TestDoubleFreePanics(t *testing.T) {
	a := New()
	h := a.Alloc(8, nil)
	a.Free(h)
	defer func() {
		if recover() == nil {
			t.Error("double free did not panic")
		}
	}()
	a.Free(h)
}

func TestCloseReportsLeaks(t *testing.T) {
	a := New()
	a.Alloc(8, "a")
	a.Alloc(100, "b")
	a.Alloc(1000, "c")
	err := a.Close()
	var leak *LeakError
	if !errors.As(err, &leak) {
		t.Fatalf("Close() = %v, want *LeakError", err)
	}
	if leak.Count() != 3 {
		t.Errorf("leak count = %d, want 3", leak.Count())
	}
	if leak.Live[ClassLarge] != 1 {
		t.Errorf("large leaks = %d, want 1", leak.Live[ClassLarge])
	}
	if a.Live() != 0 {
		t.Error("arena not emptied by Close")
	}
}

func TestAttachExclusivity(t *testing.T) {
	a := New()
	a.Attach()
	if !a.Attached() {
		t.Fatal("Attached() = false after Attach")
	}
	func() {
		defer func() {
			if recover() == nil {
				t.Error("second Attach did not panic")
			}
		}()
		a.Attach()
	}()
	func() {
		defer func() {
			if recover() == nil {
				t.Error("Recycle of attached arena did not panic")
			}
		}()
		Recycle(a)
	}()
	a.Detach()
	if a.Attached() {
		t.Error("Attached() = true after Detach")
	}
}

func TestStatsPeak(t *testing.T) {
	a := New()
	hs := []Handle{a.Alloc(1, nil), a.Alloc(2, nil), a.Alloc(3, nil)}
	for _, h := range hs {
		a.Free(h)
	}
	a.Alloc(1, nil)
	s := a.Stats()
	if s.Peak != 3 {
		t.Errorf("Peak = %d, want 3", s.Peak)
	}
	if s.Allocated != 4 || s.Freed != 3 {
		t.Errorf("Allocated/Freed = %d/%d, want 4/3", s.Allocated, s.Freed)
	}
	if s.TotalLive() != 1 {
		t.Errorf("TotalLive = %d, want 1", s.TotalLive())
	}
}

func TestRecycleCache(t *testing.T) {
	// Drain whatever an earlier test left behind.
	Acquire()

	a := New()
	a.Alloc(8, nil)
	Recycle(a)
	if a.Live() != 0 {
		t.Error("Recycle did not reset the arena")
	}
	if got := Acquire(); got != a {
		t.Error("Acquire did not return the recycled arena")
	}
	if got := Acquire(); got == a {
		t.Error("cache handed out the same arena twice")
	}
}
