package register

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aanand-mishra/student-register/internal/storage"
	"github.com/aanand-mishra/student-register/internal/types"
)

type call struct {
	op      string
	id      int64
	student types.Student
}

// fakeStore records every mutation it receives.
type fakeStore struct {
	calls []call
	err   error
}

func (f *fakeStore) CreateStudent(_ context.Context, name, email string) (int64, error) {
	f.calls = append(f.calls, call{op: "create", student: types.Student{Name: name, Email: email}})
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.calls)), nil
}

func (f *fakeStore) UpdateStudentByID(_ context.Context, id int64, s types.Student) (types.Student, error) {
	f.calls = append(f.calls, call{op: "update", id: id, student: s})
	if f.err != nil {
		return types.Student{}, f.err
	}
	s.ID = id
	return s, nil
}

func (f *fakeStore) DeleteStudentByID(_ context.Context, id int64) error {
	f.calls = append(f.calls, call{op: "delete", id: id})
	return f.err
}

func newTestController(store Mutator) *Controller {
	return New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func assertIdleAndEmpty(t *testing.T, c *Controller) {
	t.Helper()
	if c.State() != Idle {
		t.Errorf("state = %v, want idle", c.State())
	}
	if c.Name() != "" || c.Email() != "" {
		t.Errorf("form not cleared: name=%q email=%q", c.Name(), c.Email())
	}
	if p, s := c.Labels(); p != LabelSave || s != LabelClear {
		t.Errorf("labels = %q/%q, want Save/Clear", p, s)
	}
	if c.Selected().Valid {
		t.Errorf("selection still set: %+v", c.Selected())
	}
}

func TestPrimary_SaveInsertsOnce(t *testing.T) {
	store := &fakeStore{}
	c := newTestController(store)
	c.SetName("Ada")
	c.SetEmail("ada@example.com")

	if err := c.Primary(context.Background()); err != nil {
		t.Fatalf("Primary: %v", err)
	}
	if len(store.calls) != 1 || store.calls[0].op != "create" {
		t.Fatalf("calls = %+v, want one create", store.calls)
	}
	if got := store.calls[0].student; got.Name != "Ada" || got.Email != "ada@example.com" || got.ID != 0 {
		t.Errorf("created %+v", got)
	}
	assertIdleAndEmpty(t, c)
}

func TestPrimary_SaveRejectsEmptyFields(t *testing.T) {
	for _, tc := range []struct {
		name, email, wantMsg string
	}{
		{"", "ada@example.com", "name is required"},
		{"Ada", "", "email is required"},
		{"", "", "name is required, email is required"},
	} {
		store := &fakeStore{}
		c := newTestController(store)
		c.SetName(tc.name)
		c.SetEmail(tc.email)

		err := c.Primary(context.Background())
		if !errors.Is(err, ErrInvalidForm) {
			t.Fatalf("name=%q email=%q: got %v, want ErrInvalidForm", tc.name, tc.email, err)
		}
		if !strings.Contains(err.Error(), tc.wantMsg) {
			t.Errorf("error %q does not mention %q", err, tc.wantMsg)
		}
		if len(store.calls) != 0 {
			t.Errorf("invalid save sent %d mutations", len(store.calls))
		}
		if c.Name() != tc.name || c.Email() != tc.email {
			t.Errorf("draft was not kept: %q/%q", c.Name(), c.Email())
		}
		if c.State() != Idle {
			t.Errorf("state = %v, want idle", c.State())
		}
	}
}

func TestSelect_EntersEditingFromAnyState(t *testing.T) {
	c := newTestController(&fakeStore{})
	c.SetName("draft")

	first := types.Student{ID: 4, Name: "Ada", Email: "ada@example.com"}
	c.Select(first)
	if c.State() != Editing {
		t.Fatalf("state = %v, want editing", c.State())
	}
	if c.Name() != "Ada" || c.Email() != "ada@example.com" {
		t.Errorf("fields = %q/%q", c.Name(), c.Email())
	}
	if p, s := c.Labels(); p != LabelUpdate || s != LabelDelete {
		t.Errorf("labels = %q/%q, want Update/Delete", p, s)
	}

	second := types.Student{ID: 9, Name: "Grace", Email: "grace@example.com"}
	c.SetEmail("half-typed")
	c.Select(second)
	if sel := c.Selected(); !sel.Valid || sel.Student != second {
		t.Errorf("selection = %+v, want %+v", sel, second)
	}
	if c.Name() != "Grace" || c.Email() != "grace@example.com" {
		t.Errorf("fields = %q/%q", c.Name(), c.Email())
	}
}

func TestPrimary_UpdateUsesSelectedID(t *testing.T) {
	store := &fakeStore{}
	c := newTestController(store)
	c.Select(types.Student{ID: 4, Name: "Ada", Email: "ada@example.com"})
	c.SetEmail("ada@lovelace.org")

	if err := c.Primary(context.Background()); err != nil {
		t.Fatalf("Primary: %v", err)
	}
	want := call{op: "update", id: 4, student: types.Student{Name: "Ada", Email: "ada@lovelace.org"}}
	if len(store.calls) != 1 || store.calls[0] != want {
		t.Fatalf("calls = %+v, want [%+v]", store.calls, want)
	}
	assertIdleAndEmpty(t, c)
}

func TestPrimary_UpdateRejectsEmptyField(t *testing.T) {
	store := &fakeStore{}
	c := newTestController(store)
	c.Select(types.Student{ID: 4, Name: "Ada", Email: "ada@example.com"})
	c.SetName("")

	if err := c.Primary(context.Background()); !errors.Is(err, ErrInvalidForm) {
		t.Fatalf("got %v, want ErrInvalidForm", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("invalid update sent %+v", store.calls)
	}
	if c.State() != Editing {
		t.Errorf("state = %v, want editing", c.State())
	}
}

func TestSecondary_DeleteByIDIgnoresEdits(t *testing.T) {
	store := &fakeStore{}
	c := newTestController(store)
	c.Select(types.Student{ID: 4, Name: "Ada", Email: "ada@example.com"})
	c.SetName("edited but not saved")

	if err := c.Secondary(context.Background()); err != nil {
		t.Fatalf("Secondary: %v", err)
	}
	if len(store.calls) != 1 || store.calls[0].op != "delete" || store.calls[0].id != 4 {
		t.Fatalf("calls = %+v, want one delete of id 4", store.calls)
	}
	assertIdleAndEmpty(t, c)
}

func TestSecondary_ClearSendsNothing(t *testing.T) {
	store := &fakeStore{}
	c := newTestController(store)
	c.SetName("Ada")
	c.SetEmail("ada@example.com")

	if err := c.Secondary(context.Background()); err != nil {
		t.Fatalf("Secondary: %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("clear sent %+v", store.calls)
	}
	assertIdleAndEmpty(t, c)
}

func TestStoreErrorKeepsState(t *testing.T) {
	store := &fakeStore{err: storage.ErrNotFound}
	c := newTestController(store)
	selected := types.Student{ID: 4, Name: "Ada", Email: "ada@example.com"}
	c.Select(selected)

	if err := c.Primary(context.Background()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Primary: got %v, want ErrNotFound", err)
	}
	if err := c.Secondary(context.Background()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Secondary: got %v, want ErrNotFound", err)
	}
	if sel := c.Selected(); !sel.Valid || sel.Student != selected {
		t.Errorf("selection lost after store error: %+v", sel)
	}
	if c.Name() != "Ada" {
		t.Errorf("form changed after store error: %q", c.Name())
	}
}

func TestCancel(t *testing.T) {
	store := &fakeStore{}
	c := newTestController(store)
	if err := c.Cancel(); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("Cancel while idle: got %v", err)
	}

	c.Select(types.Student{ID: 1, Name: "Ada", Email: "ada@example.com"})
	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("cancel sent %+v", store.calls)
	}
	assertIdleAndEmpty(t, c)
}

func TestStateString(t *testing.T) {
	if Idle.String() != "idle" || Editing.String() != "editing" {
		t.Errorf("unexpected names %q %q", Idle, Editing)
	}
	if State(7).String() != "State(7)" {
		t.Errorf("unexpected fallback %q", State(7))
	}
}
