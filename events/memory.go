package events

import (
	"context"
	"sync"
)

type subscription struct {
	id     int
	tables map[string]bool
	fn     Handler
}

// MemoryBus dispatches synchronously to in-process subscribers.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

func (b *MemoryBus) Publish(ctx context.Context, changes ...Change) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil
	}
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, c := range changes {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, s := range subs {
			if len(s.tables) == 0 || s.tables[c.Table] {
				s.fn(c)
			}
		}
	}
	return nil
}

// Subscribe registers fn for the given tables; an empty list means all.
func (b *MemoryBus) Subscribe(tables []string, fn Handler) func() {
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		set[t] = true
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, tables: set, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = nil
	return nil
}
