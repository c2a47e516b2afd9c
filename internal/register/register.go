// Package register holds the state of the student form: the two text
// fields, the record currently being edited (if any), and what the two
// action buttons do in each state.
//
// The controller never keeps a copy of the student list. It sends one
// mutation per submit to its Mutator and leaves redrawing to whoever
// subscribes to the store's snapshots.
package register

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-register/internal/types"
)

// Button labels.
const (
	LabelSave   = "Save"
	LabelClear  = "Clear"
	LabelUpdate = "Update"
	LabelDelete = "Delete"
)

var (
	// ErrInvalidForm is returned when a submit is rejected because a
	// required field is empty. No mutation is sent.
	ErrInvalidForm = errors.New("invalid form")

	// ErrNotEditing is returned by Cancel when no record is selected.
	ErrNotEditing = errors.New("no record selected")
)

// State is the controller's mode.
type State int

const (
	// Idle: no record selected; the form holds a draft for a new record.
	Idle State = iota
	// Editing: a record is selected and loaded into the form.
	Editing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Selection is the optional selected record. Valid is false when
// nothing is selected, in which case Student is the zero value.
type Selection struct {
	Student types.Student
	Valid   bool
}

// Mutator is the write side of the store the controller needs.
type Mutator interface {
	CreateStudent(ctx context.Context, name string, email string) (int64, error)
	UpdateStudentByID(ctx context.Context, id int64, student types.Student) (types.Student, error)
	DeleteStudentByID(ctx context.Context, id int64) error
}

// Controller is the form state machine. It is not safe for concurrent
// use; the UI event loop owns it.
type Controller struct {
	store    Mutator
	validate *validator.Validate
	log      *slog.Logger

	name     string
	email    string
	selected Selection
}

// New returns an Idle controller with an empty form.
func New(store Mutator, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		store:    store,
		validate: validator.New(),
		log:      log,
	}
}

func (c *Controller) Name() string  { return c.name }
func (c *Controller) Email() string { return c.email }

func (c *Controller) SetName(name string)   { c.name = name }
func (c *Controller) SetEmail(email string) { c.email = email }

// State reports Editing when a record is selected, Idle otherwise.
func (c *Controller) State() State {
	if c.selected.Valid {
		return Editing
	}
	return Idle
}

// Selected returns the selected record, if any.
func (c *Controller) Selected() Selection {
	return c.selected
}

// Labels returns the primary and secondary button labels for the
// current state.
func (c *Controller) Labels() (primary, secondary string) {
	if c.selected.Valid {
		return LabelUpdate, LabelDelete
	}
	return LabelSave, LabelClear
}

// Select loads student into the form and enters Editing, whatever the
// previous state was. Unsaved edits to a previous selection are lost.
func (c *Controller) Select(student types.Student) {
	c.selected = Selection{Student: student, Valid: true}
	c.name = student.Name
	c.email = student.Email
	c.log.Debug("student selected", slog.Int64("id", student.ID))
}

// Primary is the Save/Update button.
//
// Idle: inserts a new record from the form. Editing: replaces the
// selected record's name and email with the form values. Either way a
// successful mutation clears the form and returns to Idle. An empty
// field yields ErrInvalidForm and leaves the state and the form text
// untouched. A store error is returned as is, also without changing
// state, so the action can be retried.
func (c *Controller) Primary(ctx context.Context) error {
	draft := types.Student{Name: c.name, Email: c.email}
	if err := c.validate.Struct(draft); err != nil {
		return invalid(err)
	}

	if !c.selected.Valid {
		id, err := c.store.CreateStudent(ctx, draft.Name, draft.Email)
		if err != nil {
			return fmt.Errorf("saving student: %w", err)
		}
		c.log.Info("student created", slog.Int64("id", id))
		c.reset()
		return nil
	}

	id := c.selected.Student.ID
	if _, err := c.store.UpdateStudentByID(ctx, id, draft); err != nil {
		return fmt.Errorf("updating student %d: %w", id, err)
	}
	c.log.Info("student updated", slog.Int64("id", id))
	c.reset()
	return nil
}

// Secondary is the Clear/Delete button.
//
// Idle: clears the form. Editing: deletes the selected record by id,
// ignoring any unsubmitted edits in the form, then clears the form and
// returns to Idle. A store error leaves the state unchanged.
func (c *Controller) Secondary(ctx context.Context) error {
	if !c.selected.Valid {
		c.reset()
		return nil
	}

	id := c.selected.Student.ID
	if err := c.store.DeleteStudentByID(ctx, id); err != nil {
		return fmt.Errorf("deleting student %d: %w", id, err)
	}
	c.log.Info("student deleted", slog.Int64("id", id))
	c.reset()
	return nil
}

// Cancel leaves Editing without touching the store.
func (c *Controller) Cancel() error {
	if !c.selected.Valid {
		return ErrNotEditing
	}
	c.reset()
	return nil
}

func (c *Controller) reset() {
	c.name, c.email = "", ""
	c.selected = Selection{}
}

// invalid converts validator output into an ErrInvalidForm with one
// message per failing field.
func invalid(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", strings.ToLower(e.Field())))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", strings.ToLower(e.Field())))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidForm, strings.Join(msgs, ", "))
}
