package world

import "github.com/gmlscript/gmlscript/internal/value"

// EntityAllocator hands out dense value.Entity handles and reuses the
// slots of destroyed entities via a free-list (§3 "Entity"). Generation
// counters are deliberately omitted: the host releases instances in a
// batched sweep rather than holding dangling references across frames, so
// a reused handle is never observed as stale by surviving code.
type EntityAllocator struct {
	nextID value.Entity
	free   []value.Entity
	live   map[value.Entity]bool
}

// NewEntityAllocator creates an empty allocator.
func NewEntityAllocator() *EntityAllocator {
	return &EntityAllocator{live: make(map[value.Entity]bool)}
}

// Alloc returns a fresh or recycled entity handle and marks it live.
func (a *EntityAllocator) Alloc() value.Entity {
	var e value.Entity
	if n := len(a.free); n > 0 {
		e = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		e = a.nextID
		a.nextID++
	}
	a.live[e] = true
	return e
}

// Free releases e back onto the free-list. Freeing an already-free or
// unknown entity is a no-op.
func (a *EntityAllocator) Free(e value.Entity) {
	if !a.live[e] {
		return
	}
	delete(a.live, e)
	a.free = append(a.free, e)
}

// IsLive reports whether e currently denotes an allocated entity.
func (a *EntityAllocator) IsLive(e value.Entity) bool { return a.live[e] }
