package register

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aanand-mishra/student-register/internal/config"
	"github.com/aanand-mishra/student-register/internal/feed"
	"github.com/aanand-mishra/student-register/internal/storage/sqlite"
	"github.com/aanand-mishra/student-register/internal/types"
)

// flow wires a controller to a real SQLite store through a running feed.
type flow struct {
	c    *Controller
	snap <-chan []types.Student
}

func newFlow(t *testing.T) *flow {
	t.Helper()
	store, err := sqlite.New(&config.Config{StoragePath: filepath.Join(t.TempDir(), "students.db")})
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	f := feed.New(store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.Run(ctx)
	}()
	ch, unsubscribe := f.Subscribe()
	t.Cleanup(func() {
		unsubscribe()
		cancel()
		<-done
		store.Close()
	})

	fl := &flow{c: newTestController(f), snap: ch}
	fl.next(t, func(s []types.Student) bool { return len(s) == 0 })
	return fl
}

// next waits for a snapshot satisfying match.
func (fl *flow) next(t *testing.T, match func([]types.Student) bool) []types.Student {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-fl.snap:
			if match(s) {
				return s
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestFlow_SaveUpdateDelete(t *testing.T) {
	fl := newFlow(t)
	ctx := context.Background()

	// Empty fields never reach the store.
	fl.c.SetName("")
	fl.c.SetEmail("ada@example.com")
	if err := fl.c.Primary(ctx); err == nil {
		t.Fatal("expected validation error")
	}

	fl.c.SetName("Ada")
	if err := fl.c.Primary(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap := fl.next(t, func(s []types.Student) bool { return len(s) == 1 })
	ada := snap[0]
	if ada.ID == 0 || ada.Name != "Ada" || ada.Email != "ada@example.com" {
		t.Fatalf("saved record %+v", ada)
	}

	fl.c.Select(ada)
	fl.c.SetEmail("ada@lovelace.org")
	if err := fl.c.Primary(ctx); err != nil {
		t.Fatalf("update: %v", err)
	}
	snap = fl.next(t, func(s []types.Student) bool {
		return len(s) == 1 && s[0].Email == "ada@lovelace.org"
	})
	if snap[0].ID != ada.ID {
		t.Fatalf("update changed id: %d -> %d", ada.ID, snap[0].ID)
	}

	fl.c.Select(snap[0])
	if err := fl.c.Secondary(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	fl.next(t, func(s []types.Student) bool { return len(s) == 0 })
	assertIdleAndEmpty(t, fl.c)
}
