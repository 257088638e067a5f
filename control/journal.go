// File: control/journal.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded debug-event journal. Cold-path pool events (growth,
// creation, contract violations) are appended here; when the bound is
// reached the oldest entries are dropped.

package control

import (
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/typepool/api"
)

// DefaultJournalCapacity bounds the journal when no explicit capacity
// is given.
const DefaultJournalCapacity = 1024

// Journal is a fixed-capacity FIFO of debug events.
type Journal struct {
	mu      sync.Mutex
	events  *queue.Queue
	cap     int
	dropped int64
}

// NewJournal creates a journal holding at most capacity events.
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultJournalCapacity
	}
	return &Journal{events: queue.New(), cap: capacity}
}

// Record appends an event, evicting the oldest when full.
func (j *Journal) Record(kind, typeName, detail string) {
	ev := api.DebugEvent{
		Kind:   kind,
		Type:   typeName,
		Detail: detail,
		Unix:   time.Now().Unix(),
	}
	j.mu.Lock()
	if j.events.Length() >= j.cap {
		j.events.Remove()
		j.dropped++
	}
	j.events.Add(ev)
	j.mu.Unlock()
}

// Snapshot returns the journal contents, oldest first.
func (j *Journal) Snapshot() []api.DebugEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]api.DebugEvent, 0, j.events.Length())
	for i := 0; i < j.events.Length(); i++ {
		out = append(out, j.events.Get(i).(api.DebugEvent))
	}
	return out
}

// Len returns the number of buffered events.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.events.Length()
}

// Dropped reports how many events were evicted due to the bound.
func (j *Journal) Dropped() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dropped
}
