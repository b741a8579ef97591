package db

import "sync"

// Op is the kind of change observed on a table.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event describes a single committed change on a table row.
type Event struct {
	Table string `json:"table"`
	Op    Op     `json:"op"`
	ID    string `json:"id"`
}

// Feed fans committed write events out to subscribers. It is the push-based
// change feed clients use to keep their views current: subscribe, refetch on
// every event, unsubscribe when the view goes away.
type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscription
}

type subscription struct {
	table string // empty matches every table
	fn    func(Event)
}

func newFeed() *Feed {
	return &Feed{subs: make(map[int]subscription)}
}

// Subscribe registers fn for events on the given table. An empty table
// subscribes to all tables. The returned function removes the subscription;
// callers must invoke it when the consuming view is torn down.
func (f *Feed) Subscribe(table string, fn func(Event)) (unsubscribe func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	f.subs[id] = subscription{table: table, fn: fn}

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// publish delivers an event to all matching subscribers. Delivery is
// synchronous with the triggering write, like the single on-change hook this
// generalizes.
func (f *Feed) publish(e Event) {
	f.mu.Lock()
	fns := make([]func(Event), 0, len(f.subs))
	for _, sub := range f.subs {
		if sub.table == "" || sub.table == e.Table {
			fns = append(fns, sub.fn)
		}
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
