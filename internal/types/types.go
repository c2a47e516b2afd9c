// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// the store, the feed, the controller and both front-ends can all import
// types without depending on each other.
package types

// Student represents one registered student.
//
// Struct tags serve two purposes:
//
//  1. json:"..."  — controls how the field appears when encoded to JSON.
//
//  2. validate:"..." — rules checked by the go-playground/validator
//     package. "required" means the field must be non-empty. Email has
//     no format rule: any non-empty text is accepted.
//
// ID is 0 until the store assigns one on insert.
type Student struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required"`
}
