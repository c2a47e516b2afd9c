// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// The controller, the feed and the HTTP handlers depend only on this
// interface, so tests can pass a fake and the SQLite backend can be
// swapped without touching them.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-register/internal/types"
)

// ErrNotFound is returned when no student matches the requested id.
// Callers check it with errors.Is.
var ErrNotFound = errors.New("student not found")

// Storage is the database contract.
type Storage interface {
	// CreateStudent inserts a new student record and returns the
	// store-assigned primary-key ID.
	CreateStudent(ctx context.Context, name string, email string) (int64, error)

	// GetStudentByID fetches a single student by primary key.
	// Returns ErrNotFound if there is no such id.
	GetStudentByID(ctx context.Context, id int64) (types.Student, error)

	// GetStudents returns every student ordered by id (insertion order).
	// Returns an empty slice (not nil) if there are no students.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// UpdateStudentByID replaces name and email of an existing student
	// and returns the stored record. Returns ErrNotFound if there is no
	// such id; nothing is written in that case.
	UpdateStudentByID(ctx context.Context, id int64, student types.Student) (types.Student, error)

	// DeleteStudentByID removes a student record permanently.
	// Returns ErrNotFound if there is no such id.
	DeleteStudentByID(ctx context.Context, id int64) error
}
