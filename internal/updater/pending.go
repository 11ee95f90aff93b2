package updater

import (
	"sync"

	"github.com/lunarforge/comicsync/internal/metrics"
)

// defaultPendingBuffer sizes the channel between schedulers and the news
// updater. Far more capacity than one drain interval ever accumulates.
const defaultPendingBuffer = 128

// PendingSet collects comic ids awaiting a news refresh. Any number of
// producers (HTTP handlers, the comic updater) call Schedule; the news
// updater alone snapshots and removes entries. Duplicate schedules before a
// drain collapse into one entry.
//
// Schedule is channel-first so producers on the request path hand their id
// off without contending on the set lock; the locked insert is only the
// overflow path. Neither path performs I/O.
type PendingSet struct {
	incoming chan ComicID

	mu  sync.Mutex
	ids map[ComicID]struct{}
}

// NewPendingSet constructs an empty PendingSet.
func NewPendingSet() *PendingSet {
	return &PendingSet{
		incoming: make(chan ComicID, defaultPendingBuffer),
		ids:      make(map[ComicID]struct{}),
	}
}

// Schedule marks a comic as needing a news refresh. It never blocks beyond a
// short in-memory critical section and never fails; scheduling is a
// best-effort signal.
func (p *PendingSet) Schedule(id ComicID) {
	select {
	case p.incoming <- id:
	default:
		p.mu.Lock()
		p.ids[id] = struct{}{}
		p.mu.Unlock()
	}
	metrics.SetPendingRefreshes(p.Len())
}

// Snapshot folds any channel backlog into the set and returns a copy of all
// currently pending ids. Entries stay pending until Remove is called, so a
// failed batch can leave them for the next drain.
func (p *PendingSet) Snapshot() []ComicID {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.foldLocked()
	out := make([]ComicID, 0, len(p.ids))
	for id := range p.ids {
		out = append(out, id)
	}
	return out
}

// Remove drops the given ids from the set. Removal is by value, so an id
// re-scheduled while its batch was in flight is dropped along with the
// original entry; the next page view schedules it again.
func (p *PendingSet) Remove(ids ...ComicID) {
	p.mu.Lock()
	p.foldLocked()
	for _, id := range ids {
		delete(p.ids, id)
	}
	n := len(p.ids)
	p.mu.Unlock()
	metrics.SetPendingRefreshes(n)
}

// Len reports how many distinct ids are pending, including channel backlog.
func (p *PendingSet) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.foldLocked()
	return len(p.ids)
}

// foldLocked drains the incoming channel into the set. Callers hold p.mu.
func (p *PendingSet) foldLocked() {
	for {
		select {
		case id := <-p.incoming:
			p.ids[id] = struct{}{}
		default:
			return
		}
	}
}
