package arena

import "sync"

// The recycle cache holds at most one arena. It is the only state in the
// compiler shared between goroutines.
var recycled struct {
	mu    sync.Mutex
	arena *Arena
}

// Acquire returns the cached arena when one is available and a fresh arena
// otherwise. The result is always detached and empty.
func Acquire() *Arena {
	recycled.mu.Lock()
	a := recycled.arena
	recycled.arena = nil
	recycled.mu.Unlock()
	if a != nil {
		return a
	}
	return New()
}

// Recycle resets a and offers it to the cache. When the cache is already
// full the arena is dropped. Recycling an attached arena panics.
func Recycle(a *Arena) {
	if a == nil {
		return
	}
	if a.attached {
		panic("arena: recycle while attached")
	}
	a.Reset()
	recycled.mu.Lock()
	if recycled.arena == nil {
		recycled.arena = a
	}
	recycled.mu.Unlock()
}
