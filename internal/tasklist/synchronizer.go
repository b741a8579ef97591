// Package tasklist keeps an in-memory view of a user's tasks consistent
// with the store. Completion toggles apply optimistically and roll back on
// failure; change-feed events trigger a refetch of the filtered list.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kirstym/tasknest/internal/db"
	"github.com/kirstym/tasknest/internal/logging"
	"github.com/kirstym/tasknest/pkg/models"
)

// ErrUnknownTask is returned when a toggle targets a task that is not in
// the current view.
var ErrUnknownTask = errors.New("task not in view")

// Store is the persistence surface the synchronizer needs.
type Store interface {
	ListTasks(ctx context.Context, filter db.TaskFilter) ([]*models.Task, error)
	SetTaskStatus(ctx context.Context, id string, status models.TaskStatus) error
	Subscribe(table string, fn func(db.Event)) (unsubscribe func())
}

// Query scopes the view. Window and Search are applied in memory on read;
// the remaining fields narrow the store query itself.
type Query struct {
	UserID      string
	WorkspaceID *string
	FolderID    *string
	Window      Window
	Search      string
}

// Synchronizer maintains the task view for one Query.
type Synchronizer struct {
	store Store
	now   func() time.Time
	log   zerolog.Logger

	mu    sync.Mutex
	query Query
	tasks []*models.Task
	byID  map[string]*models.Task
	// seq counts locally-initiated mutations per task. A refetch that
	// started before a mutation must not clobber the optimistic value,
	// so stale fetch results are dropped per task when seq has moved.
	seq map[string]uint64

	onChange func()

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	refreshCh   chan struct{}
	done        chan struct{}
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithClock overrides the wall clock used for window filters and
// completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// OnChange registers a callback invoked after the view changes. The
// callback runs outside the synchronizer's lock.
func OnChange(fn func()) Option {
	return func(s *Synchronizer) { s.onChange = fn }
}

// New creates a synchronizer for the given query and subscribes it to the
// store's task feed. The caller owns the lifecycle and must Close it; the
// initial list is loaded on the first Refresh.
func New(store Store, query Query, opts ...Option) *Synchronizer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Synchronizer{
		store:     store,
		now:       time.Now,
		log:       logging.Component("tasklist"),
		query:     query,
		byID:      make(map[string]*models.Task),
		seq:       make(map[string]uint64),
		ctx:       ctx,
		cancel:    cancel,
		refreshCh: make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.unsubscribe = store.Subscribe("tasks", func(db.Event) {
		s.scheduleRefresh()
	})
	go s.loop()

	return s
}

// Close tears down the feed subscription and stops the refresh loop. Any
// in-flight refetch is cancelled and its result discarded.
func (s *Synchronizer) Close() {
	s.unsubscribe()
	s.cancel()
	<-s.done
}

func (s *Synchronizer) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.refreshCh:
			if err := s.Refresh(s.ctx); err != nil && s.ctx.Err() == nil {
				s.log.Warn().Err(err).Msg("feed-triggered refresh failed")
			}
		}
	}
}

func (s *Synchronizer) scheduleRefresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

// Refresh refetches the filtered list from the store. Tasks mutated locally
// while the fetch was in flight keep their optimistic copy; the next feed
// event reconfirms them.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	filter := db.TaskFilter{
		UserID:      s.query.UserID,
		WorkspaceID: s.query.WorkspaceID,
		FolderID:    s.query.FolderID,
	}
	before := make(map[string]uint64, len(s.seq))
	for id, n := range s.seq {
		before[id] = n
	}
	s.mu.Unlock()

	fetched, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return fmt.Errorf("refresh task list: %w", err)
	}

	s.mu.Lock()
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return err
	}
	for i, t := range fetched {
		if s.seq[t.ID] == before[t.ID] {
			continue
		}
		if local, ok := s.byID[t.ID]; ok {
			fetched[i] = local
		}
	}
	s.tasks = fetched
	s.byID = make(map[string]*models.Task, len(fetched))
	for _, t := range fetched {
		s.byID[t.ID] = t
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// SetQuery replaces the view's query and refetches.
func (s *Synchronizer) SetQuery(ctx context.Context, query Query) error {
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Tasks returns the tasks visible under the query's window and search, in
// store order. The returned records are copies.
func (s *Synchronizer) Tasks() []*models.Task {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !MatchesWindow(t, s.query.Window, now) || !MatchesSearch(t, s.query.Search) {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	return out
}

// ToggleComplete flips a task's completion state. The local copy changes
// before the store call; on failure it is rolled back to the pre-toggle
// status and timestamp and the error is returned.
func (s *Synchronizer) ToggleComplete(ctx context.Context, id string) error {
	s.mu.Lock()
	t, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}

	prevStatus := t.Status
	prevCompleted := t.CompletedAt

	var target models.TaskStatus
	if t.Completed() {
		t.Reopen()
		target = models.TaskStatusPending
	} else {
		t.Complete(s.now())
		target = models.TaskStatusCompleted
	}
	s.seq[id]++
	s.mu.Unlock()
	s.notify()

	if err := s.store.SetTaskStatus(ctx, id, target); err != nil {
		s.mu.Lock()
		if cur, ok := s.byID[id]; ok {
			cur.Status = prevStatus
			cur.CompletedAt = prevCompleted
			s.seq[id]++
		}
		s.mu.Unlock()
		s.notify()
		return fmt.Errorf("toggle task %s: %w", id, err)
	}

	return nil
}

func (s *Synchronizer) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
