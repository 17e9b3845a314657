package qnaview

import "sync"

// Ticket identifies one in-flight fetch for a slot
type Ticket struct {
	slot string
	gen  uint64
}

// Guard drops fetch results that arrive after their view was torn down or
// replaced. Each slot holds at most one live generation.
type Guard struct {
	mu    sync.Mutex
	next  uint64
	slots map[string]uint64
}

// NewGuard creates an empty guard
func NewGuard() *Guard {
	return &Guard{slots: make(map[string]uint64)}
}

// Begin starts a fetch for slot, superseding any earlier ticket
func (g *Guard) Begin(slot string) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.next++
	g.slots[slot] = g.next
	return Ticket{slot: slot, gen: g.next}
}

// Current reports whether t is still the latest ticket for its slot
func (g *Guard) Current(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	gen, ok := g.slots[t.slot]
	return ok && gen == t.gen
}

// Finish forgets the slot when t is still current
func (g *Guard) Finish(t Ticket) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if gen, ok := g.slots[t.slot]; ok && gen == t.gen {
		delete(g.slots, t.slot)
	}
}

// Release tears the slot down; every outstanding ticket becomes stale
func (g *Guard) Release(slot string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.slots, slot)
}
