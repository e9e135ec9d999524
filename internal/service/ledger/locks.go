package ledger

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// lotLocks hands out one mutex per lot id so that an entry mutation and its
// ledger delta run as a critical section. Entries are reference-counted and
// dropped once the last holder releases, keeping the map bounded by the
// number of in-flight mutations.
type lotLocks struct {
	mu    sync.Mutex
	locks map[primitive.ObjectID]*lotLock
}

type lotLock struct {
	mu   sync.Mutex
	refs int
}

func newLotLocks() *lotLocks {
	return &lotLocks{locks: make(map[primitive.ObjectID]*lotLock)}
}

// acquire blocks until the lot's mutex is held and returns the release func.
func (l *lotLocks) acquire(id primitive.ObjectID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &lotLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
