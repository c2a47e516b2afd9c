// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// The router expects func(http.ResponseWriter, *http.Request). To inject
// the store, each exported function takes its dependencies and returns a
// handler that closes over them:
//
//	router.HandleFunc("POST /api/students", student.New(storage))
//
// New(storage) runs once at startup; the returned handler runs on every
// request.
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-register/internal/storage"
	"github.com/aanand-mishra/student-register/internal/types"
	"github.com/aanand-mishra/student-register/internal/utils/response"
)

// Subscriber delivers list snapshots; feed.Feed implements it.
type Subscriber interface {
	Subscribe() (<-chan []types.Student, func())
}

// Register adds the student routes to router.
//
// Route table:
//
//	POST   /api/students         → create a new student
//	GET    /api/students         → list all students
//	GET    /api/students/stream  → server-sent snapshot stream
//	GET    /api/students/{id}    → get one student by ID
//	PUT    /api/students/{id}    → update a student
//	DELETE /api/students/{id}    → delete a student
func Register(router *http.ServeMux, storage storage.Storage, snapshots Subscriber) {
	router.HandleFunc("POST /api/students", New(storage))
	router.HandleFunc("GET /api/students", GetList(storage))
	router.HandleFunc("GET /api/students/stream", Stream(snapshots))
	router.HandleFunc("GET /api/students/{id}", GetByID(storage))
	router.HandleFunc("PUT /api/students/{id}", Update(storage))
	router.HandleFunc("DELETE /api/students/{id}", Delete(storage))
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
//
// Request body:
//
//	{ "name": "Ada", "email": "ada@example.com" }
//
// 201 Created → { "id": 1 }
// 400         → empty body, malformed JSON, or empty name/email
// 500         → database error
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		student, ok := decodeStudent(w, r)
		if !ok {
			return
		}

		lastID, err := storage.CreateStudent(r.Context(), student.Name, student.Email)
		if err != nil {
			slog.Error("error creating student", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		slog.Info("student created", slog.Int64("id", lastID))
		response.WriteJSON(w, http.StatusCreated, map[string]int64{"id": lastID})
	}
}

// GetByID handles GET /api/students/{id}
//
// 200 → the student; 400 → id is not an integer; 404 → no such id.
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		intID, ok := parseID(w, id)
		if !ok {
			return
		}

		student, err := storage.GetStudentByID(r.Context(), intID)
		if err != nil {
			writeStoreError(w, "getting student", id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// GetList handles GET /api/students
//
// Returns the current snapshot in insertion order; an empty table is [].
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := storage.GetStudents(r.Context())
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{id}
// Replaces name and email of an existing student (full-record replace).
//
// 200 → the stored record
// 400 → invalid id, empty body, or empty name/email
// 404 → no such id
// ─────────────────────────────────────────────────────────────────────────────
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		intID, ok := parseID(w, id)
		if !ok {
			return
		}

		student, ok := decodeStudent(w, r)
		if !ok {
			return
		}

		updated, err := storage.UpdateStudentByID(r.Context(), intID, student)
		if err != nil {
			writeStoreError(w, "updating student", id, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /api/students/{id}
//
// 200 → { "status": "deleted" }; 400 → invalid id; 404 → no such id.
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		intID, ok := parseID(w, id)
		if !ok {
			return
		}

		if err := storage.DeleteStudentByID(r.Context(), intID); err != nil {
			writeStoreError(w, "deleting student", id, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Stream handles GET /api/students/stream
//
// Keeps the connection open and writes one "snapshot" event per list
// snapshot until the client goes away:
//
//	event: snapshot
//	data: [{"id":1,"name":"Ada","email":"ada@example.com"}]
//
// ─────────────────────────────────────────────────────────────────────────────
func Stream(snapshots Subscriber) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, err := response.StartEventStream(w)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		ch, cancel := snapshots.Subscribe()
		defer cancel()
		slog.Info("snapshot stream opened", slog.String("remote", r.RemoteAddr))

		for {
			select {
			case <-r.Context().Done():
				slog.Info("snapshot stream closed", slog.String("remote", r.RemoteAddr))
				return
			case students, ok := <-ch:
				if !ok {
					return
				}
				if err := response.WriteEvent(w, flusher, "snapshot", students); err != nil {
					slog.Warn("writing snapshot event", slog.String("error", err.Error()))
					return
				}
			}
		}
	}
}

// decodeStudent reads and validates the request body, writing a 400 and
// returning false when it is unusable.
func decodeStudent(w http.ResponseWriter, r *http.Request) (types.Student, bool) {
	var student types.Student

	err := json.NewDecoder(r.Body).Decode(&student)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return types.Student{}, false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return types.Student{}, false
	}

	if err := validator.New().Struct(student); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.ValidationError(validateErrs))
		} else {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		}
		return types.Student{}, false
	}

	return student, true
}

func parseID(w http.ResponseWriter, id string) (int64, bool) {
	intID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("invalid id: must be an integer")))
		return 0, false
	}
	return intID, true
}

// writeStoreError maps storage.ErrNotFound to 404 and anything else to 500.
func writeStoreError(w http.ResponseWriter, action, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
		return
	}
	slog.Error("error "+action,
		slog.String("id", id),
		slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
}
