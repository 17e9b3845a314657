package service

import (
	"context"
	"sync"
)

// viewLocks serializes the load-modify-save cycle on one view-state key
// within this process. Entries live only while someone holds or waits.
type viewLocks struct {
	mu    sync.Mutex
	slots map[string]*viewLock
}

type viewLock struct {
	ch   chan struct{}
	refs int
}

func newViewLocks() *viewLocks {
	return &viewLocks{slots: make(map[string]*viewLock)}
}

// lock waits for key and returns its release func. It gives up when ctx is
// done first.
func (l *viewLocks) lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &viewLock{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		return func() {
			<-slot.ch
			l.drop(key, slot)
		}, nil
	case <-ctx.Done():
		l.drop(key, slot)
		return nil, ctx.Err()
	}
}

func (l *viewLocks) drop(key string, slot *viewLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}
