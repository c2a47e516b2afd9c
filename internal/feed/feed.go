// Package feed turns store mutations into pushed list snapshots.
//
// Feed wraps a storage.Storage. Every mutation that commits through it
// raises a "changed" signal; a single refresher goroutine (Run) re-reads
// the whole table and hands the result to every subscriber. Signals
// raised while a refresh is pending collapse into one, and each
// subscriber only ever holds the newest snapshot, so a slow reader skips
// intermediate states instead of falling behind.
package feed

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aanand-mishra/student-register/internal/events"
	"github.com/aanand-mishra/student-register/internal/storage"
	"github.com/aanand-mishra/student-register/internal/types"
)

// Feed is a storage.Storage whose mutations are observable.
type Feed struct {
	store   storage.Storage
	pub     events.Publisher
	log     *slog.Logger
	changed chan struct{}

	mu     sync.Mutex
	subs   map[int]chan []types.Student
	nextID int
	latest []types.Student
	ready  bool
}

// Compile-time check that Feed implements storage.Storage.
var _ storage.Storage = (*Feed)(nil)

// New wraps store. pub may be nil, in which case no change events are sent.
func New(store storage.Storage, pub events.Publisher, log *slog.Logger) *Feed {
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Feed{
		store:   store,
		pub:     pub,
		log:     log,
		changed: make(chan struct{}, 1),
		subs:    make(map[int]chan []types.Student),
	}
}

// Run refreshes once, then once per coalesced change signal, until ctx
// is done. It must be running for subscribers to receive anything.
func (f *Feed) Run(ctx context.Context) error {
	f.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.changed:
			f.refresh(ctx)
		}
	}
}

// Subscribe registers a new snapshot consumer. The channel has capacity
// one and always holds the newest undelivered snapshot. If a snapshot was
// already produced, it is queued immediately. Snapshots are shared
// between subscribers and must not be modified. Call the returned function
// to unsubscribe; it closes the channel.
func (f *Feed) Subscribe() (<-chan []types.Student, func()) {
	ch := make(chan []types.Student, 1)

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	if f.ready {
		ch <- f.latest
	}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			close(ch)
			f.mu.Unlock()
		})
	}
	return ch, cancel
}

// Latest returns the most recent snapshot and whether one exists yet.
func (f *Feed) Latest() ([]types.Student, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.ready
}

func (f *Feed) notify() {
	select {
	case f.changed <- struct{}{}:
	default:
		// a refresh is already pending
	}
}

func (f *Feed) refresh(ctx context.Context) {
	students, err := f.store.GetStudents(ctx)
	if err != nil {
		if ctx.Err() == nil {
			f.log.Error("refreshing student snapshot", slog.String("error", err.Error()))
		}
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.latest, f.ready = students, true
	for _, ch := range f.subs {
		// Drop the stale snapshot, if any, then deliver the new one.
		// Only this goroutine sends, so the second send cannot block.
		select {
		case <-ch:
		default:
		}
		ch <- students
	}
	f.log.Debug("student snapshot published",
		slog.Int("count", len(students)),
		slog.Int("subscribers", len(f.subs)))
}

func (f *Feed) publish(ctx context.Context, topic string, event any) {
	if err := f.pub.Publish(ctx, topic, event); err != nil {
		f.log.Warn("publishing change event",
			slog.String("topic", topic),
			slog.String("error", err.Error()))
	}
}

// CreateStudent inserts through the wrapped store and signals a change.
func (f *Feed) CreateStudent(ctx context.Context, name, email string) (int64, error) {
	id, err := f.store.CreateStudent(ctx, name, email)
	if err != nil {
		return 0, err
	}
	f.notify()
	f.publish(ctx, events.TopicStudentCreated, events.StudentCreated{
		Student: types.Student{ID: id, Name: name, Email: email},
	})
	return id, nil
}

// UpdateStudentByID updates through the wrapped store and signals a change.
func (f *Feed) UpdateStudentByID(ctx context.Context, id int64, student types.Student) (types.Student, error) {
	updated, err := f.store.UpdateStudentByID(ctx, id, student)
	if err != nil {
		return types.Student{}, err
	}
	f.notify()
	f.publish(ctx, events.TopicStudentUpdated, events.StudentUpdated{Student: updated})
	return updated, nil
}

// DeleteStudentByID deletes through the wrapped store and signals a change.
func (f *Feed) DeleteStudentByID(ctx context.Context, id int64) error {
	if err := f.store.DeleteStudentByID(ctx, id); err != nil {
		return err
	}
	f.notify()
	f.publish(ctx, events.TopicStudentDeleted, events.StudentDeleted{StudentID: id})
	return nil
}

func (f *Feed) GetStudentByID(ctx context.Context, id int64) (types.Student, error) {
	return f.store.GetStudentByID(ctx, id)
}

func (f *Feed) GetStudents(ctx context.Context) ([]types.Student, error) {
	return f.store.GetStudents(ctx)
}
