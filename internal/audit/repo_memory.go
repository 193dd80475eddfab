package audit

import (
	"context"
	"sync"
)

// MemoryRepo is a bounded in-memory append-only repository. It backs the
// process-local auth event trail; durable audit storage is out of scope.

const defaultCapacity = 1024

type MemoryRepo struct {
	mu     sync.Mutex
	cap    int
	events []Event
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{cap: defaultCapacity}
}

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) >= r.cap {
		// Drop the oldest entry; the trail is a debugging aid, not a ledger.
		r.events = r.events[1:]
	}
	r.events = append(r.events, e)
	return nil
}

func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
