// Package arena provides the node pools that back IR construction.
//
// An Arena hands out generation-checked handles from two fixed size-class
// pools and an overflow table for anything larger. Exactly one IR context
// may have an arena attached at a time; handing an attached arena to a
// second context is a programming error and panics.
package arena

import (
	"fmt"
	"log/slog"

	"fortio.org/safecast"
)

// Size-class limits in bytes.
const (
	SmallLimit = 64
	LargeLimit = 256
)

// Class identifies the pool a handle was allocated from.
type Class uint8

const (
	ClassSmall Class = iota
	ClassLarge
	ClassGeneral

	numClasses = 3
)

func (c Class) String() string {
	switch c {
	case ClassSmall:
		return "small"
	case ClassLarge:
		return "large"
	case ClassGeneral:
		return "general"
	default:
		return fmt.Sprintf("Class(%d)", uint8(c))
	}
}

// ClassFor returns the pool used for a request of the given size.
func ClassFor(size int) Class {
	switch {
	case size <= SmallLimit:
		return ClassSmall
	case size <= LargeLimit:
		return ClassLarge
	default:
		return ClassGeneral
	}
}

// Handle refers to one allocation. The zero Handle is never issued.
type Handle struct {
	index uint32
	gen   uint32
	class Class
}

// IsValid reports whether the handle was issued by an arena.
func (h Handle) IsValid() bool { return h.index != 0 }

// Class returns the pool the handle belongs to.
func (h Handle) Class() Class { return h.class }

func (h Handle) String() string {
	if !h.IsValid() {
		return "handle(none)"
	}
	return fmt.Sprintf("handle(%s#%d.%d)", h.class, h.index, h.gen)
}

type slot struct {
	gen     uint32
	live    bool
	size    int
	payload any
}

type pool struct {
	slots []slot
	free  []uint32
	live  int
}

func newPool(capacity int) pool {
	// index 0 reserved so the zero Handle stays invalid
	return pool{slots: make([]slot, 1, capacity+1)}
}

func (p *pool) alloc(size int, payload any) (uint32, uint32) {
	if n := len(p.free); n > 0 {
		index := p.free[n-1]
		p.free = p.free[:n-1]
		s := &p.slots[index]
		s.live = true
		s.size = size
		s.payload = payload
		p.live++
		return index, s.gen
	}
	index, err := safecast.Conv[uint32](len(p.slots))
	if err != nil {
		panic(fmt.Errorf("arena pool overflow: %w", err))
	}
	p.slots = append(p.slots, slot{gen: 1, live: true, size: size, payload: payload})
	p.live++
	return index, 1
}

func (p *pool) lookup(h Handle) (*slot, bool) {
	if h.index == 0 || int(h.index) >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil, false
	}
	return s, true
}

// Stats summarizes arena usage.
type Stats struct {
	Live      [numClasses]int
	Peak      int
	Allocated int
	Freed     int
}

// TotalLive sums live allocations over every class.
func (s Stats) TotalLive() int {
	total := 0
	for _, n := range s.Live {
		total += n
	}
	return total
}

// Arena is a set of node pools. It is not safe for concurrent use; an
// arena belongs to whichever goroutine owns the context it is attached to.
type Arena struct {
	pools    [numClasses]pool
	attached bool
	stats    Stats
	logger   *slog.Logger
}

// New creates an empty, detached arena.
func New() *Arena {
	a := &Arena{}
	a.init()
	return a
}

func (a *Arena) init() {
	a.pools[ClassSmall] = newPool(256)
	a.pools[ClassLarge] = newPool(64)
	a.pools[ClassGeneral] = newPool(8)
	a.stats = Stats{}
}

// SetLogger sets the logger used for leak reports. A nil logger restores
// slog.Default.
func (a *Arena) SetLogger(l *slog.Logger) { a.logger = l }

func (a *Arena) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

// Alloc registers payload in the pool matching size and returns its handle.
func (a *Arena) Alloc(size int, payload any) Handle {
	class := ClassFor(size)
	index, gen := a.pools[class].alloc(size, payload)
	a.stats.Allocated++
	if live := a.stats.Allocated - a.stats.Freed; live > a.stats.Peak {
		a.stats.Peak = live
	}
	return Handle{index: index, gen: gen, class: class}
}

// Get returns the payload for h. It reports false for stale or foreign
// handles.
func (a *Arena) Get(h Handle) (any, bool) {
	if int(h.class) >= numClasses {
		return nil, false
	}
	s, ok := a.pools[h.class].lookup(h)
	if !ok {
		return nil, false
	}
	return s.payload, true
}

// Free returns h to its pool. Freeing a stale handle panics.
func (a *Arena) Free(h Handle) {
	if int(h.class) >= numClasses {
		panic(fmt.Sprintf("arena: free of %v from unknown class", h))
	}
	p := &a.pools[h.class]
	s, ok := p.lookup(h)
	if !ok {
		panic(fmt.Sprintf("arena: free of stale %v", h))
	}
	s.live = false
	s.payload = nil
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	p.free = append(p.free, h.index)
	p.live--
	a.stats.Freed++
}

// Live returns the number of outstanding allocations.
func (a *Arena) Live() int { return a.Stats().TotalLive() }

// Stats returns a snapshot of the arena counters.
func (a *Arena) Stats() Stats {
	s := a.stats
	for c := range a.pools {
		s.Live[c] = a.pools[c].live
	}
	return s
}

// Attached reports whether a context currently owns the arena.
func (a *Arena) Attached() bool { return a.attached }

// Attach marks the arena as owned. It panics when the arena is already
// attached.
func (a *Arena) Attach() {
	if a.attached {
		panic("arena: already attached to a context")
	}
	a.attached = true
}

// Detach releases ownership. It panics when the arena is not attached.
func (a *Arena) Detach() {
	if !a.attached {
		panic("arena: detach of an arena that is not attached")
	}
	a.attached = false
}

// Reset drops every allocation and returns the arena to its initial state.
func (a *Arena) Reset() {
	if a.attached {
		panic("arena: reset while attached")
	}
	a.init()
}

// LeakError reports allocations still live at teardown.
type LeakError struct {
	Live [numClasses]int
}

// Count returns the total number of leaked allocations.
func (e *LeakError) Count() int {
	total := 0
	for _, n := range e.Live {
		total += n
	}
	return total
}

func (e *LeakError) Error() string {
	return fmt.Sprintf("arena: %d nodes leaked (small=%d large=%d general=%d)",
		e.Count(), e.Live[ClassSmall], e.Live[ClassLarge], e.Live[ClassGeneral])
}

// Close tears the arena down. Every allocation still live is a leak and is
// reported through a *LeakError; builds tagged shade_debug also log each
// leaked payload.
func (a *Arena) Close() error {
	if a.attached {
		panic("arena: close while attached")
	}
	stats := a.Stats()
	var err error
	if stats.TotalLive() > 0 {
		err = &LeakError{Live: stats.Live}
		if debugLeaks {
			a.reportLeaks()
		}
	}
	a.init()
	return err
}

func (a *Arena) reportLeaks() {
	logger := a.log()
	for c := range a.pools {
		for i, s := range a.pools[c].slots {
			if i == 0 || !s.live {
				continue
			}
			logger.Warn("arena leak",
				"class", Class(c).String(),
				"index", i,
				"size", s.size,
				"payload", fmt.Sprintf("%T", s.payload))
		}
	}
}
