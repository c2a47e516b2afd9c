// Package events publishes one message per committed student mutation.
package events

import (
	"context"

	"github.com/aanand-mishra/student-register/internal/types"
)

// Event topic constants
const (
	TopicStudentCreated = "students.student.created"
	TopicStudentUpdated = "students.student.updated"
	TopicStudentDeleted = "students.student.deleted"

	// TopicAll matches every student topic (NATS wildcard).
	TopicAll = "students.>"
)

type StudentCreated struct {
	Student types.Student `json:"student"`
}

type StudentUpdated struct {
	Student types.Student `json:"student"`
}

type StudentDeleted struct {
	StudentID int64 `json:"student_id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
