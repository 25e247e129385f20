// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// Go's router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// To inject the store, each handler is built by a factory that accepts
// a storage.Storage and returns a function with exactly that signature:
//
//	router.HandleFunc("POST /students", student.New(storage))
//
// New(storage) runs ONCE at startup; the returned closure runs on every
// request. Each handler is a single linear sequence:
// validate → call the store → shape the response. Nothing is retried.
package student

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aanand-mishra/student-records-api/internal/errs"
	"github.com/aanand-mishra/student-records-api/internal/schema"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
	"github.com/aanand-mishra/student-records-api/internal/utils/response"
)

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /students
// Creates a new student from the JSON request body. Duplicates are allowed.
//
// Request body (JSON):
//
//	{ "name": "Ann", "age": 20, "address": { "city": "Rome", "country": "IT" } }
//
// Success response (201 Created):
//
//	{ "id": "665f1c2e9b1e8a3d4c5b6a79" }
//
// Error responses:
//
//	422 Unprocessable — empty body, malformed JSON, or failed validation
//	500 Internal      — store error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student, err := schema.DecodeStudent(r.Body)
		if err != nil {
			response.Error(w, r, err)
			return
		}

		id, err := storage.CreateStudent(r.Context(), student)
		if err != nil {
			response.Error(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /students?country=&age=
// Returns the name and age of every complete student matching the filters.
//
// Query parameters (both optional, combined with AND):
//
//	country — exact match on address.country
//	age     — minimum age (age >= value)
//
// Success response (200 OK), in store order:
//
//	{ "data": [ { "name": "Ann", "age": 20 } ] }
//
// Documents missing name, age, or a full address are silently skipped.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		minAge, err := schema.ParseMinAge(query.Get("age"))
		if err != nil {
			response.Error(w, r, err)
			return
		}

		records, err := storage.GetStudents(r.Context(), types.StudentFilter{
			Country: query.Get("country"),
			MinAge:  minAge,
		})
		if err != nil {
			response.Error(w, r, err)
			return
		}

		// Non-nil so an empty result encodes as [] rather than null.
		data := make([]types.StudentSummary, 0, len(records))
		for _, rec := range records {
			student, err := rec.Student()
			if err != nil {
				continue
			}
			data = append(data, types.StudentSummary{Name: student.Name, Age: student.Age})
		}

		response.WriteJSON(w, http.StatusOK, map[string]any{"data": data})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /students/{id}
//
// Success response (200 OK):
//
//	{ "name": "Ann", "age": 20, "address": { "city": "Rome", "country": "IT" } }
//
// Error responses:
//
//	400 Bad Request — id is not a valid ObjectID
//	404 Not Found   — no student with that id
//	500 Internal    — the stored document is incomplete, or store error
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r.PathValue("id"))
		if err != nil {
			response.Error(w, r, err)
			return
		}

		rec, err := storage.GetStudentByID(r.Context(), id)
		if err != nil {
			response.Error(w, r, lookupError(err))
			return
		}

		student, err := rec.Student()
		if err != nil {
			response.Error(w, r, incompleteError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PATCH /students/{id}
// Applies a partial update: only the fields present in the body are set.
//
// Success response: 204 No Content, empty body.
//
// Error responses:
//
//	422 Unprocessable — malformed body, wrong types, or a null field
//	400 Bad Request   — no fields supplied, invalid id, or store failure
//	404 Not Found     — nothing was modified: either the id does not exist
//	                    or every supplied value equals the stored one
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		update, err := schema.DecodeStudentUpdate(r.Body)
		if err != nil {
			response.Error(w, r, err)
			return
		}

		if update.IsEmpty() {
			response.Error(w, r, errs.ErrEmptyUpdate)
			return
		}

		id, err := parseID(r.PathValue("id"))
		if err != nil {
			response.Error(w, r, err)
			return
		}

		modified, err := storage.UpdateStudentByID(r.Context(), id, update)
		if err != nil {
			response.Error(w, r, errs.ErrUpdateFailed.Wrap(err))
			return
		}

		if modified == 0 {
			response.Error(w, r, errs.ErrNotFoundOrUnchanged)
			return
		}

		response.NoContent(w)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /students/{student_id}
// Looks the student up first, then removes it. The lookup and the delete
// are not atomic; a concurrent delete in between surfaces as 400.
//
// Success response: 200 OK with an empty JSON object.
//
// Error responses:
//
//	400 Bad Request — invalid id, or the store removed nothing / failed
//	404 Not Found   — no student with that id
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r.PathValue("student_id"))
		if err != nil {
			response.Error(w, r, err)
			return
		}

		if _, err := storage.GetStudentByID(r.Context(), id); err != nil {
			response.Error(w, r, lookupError(err))
			return
		}

		deleted, err := storage.DeleteStudentByID(r.Context(), id)
		if err != nil {
			response.Error(w, r, errs.ErrDeleteFailed.Wrap(err))
			return
		}
		if deleted == 0 {
			response.Error(w, r, errs.ErrDeleteFailed)
			return
		}

		response.WriteJSON(w, http.StatusOK, struct{}{})
	}
}

func parseID(raw string) (primitive.ObjectID, error) {
	id, err := storage.ParseID(raw)
	if err != nil {
		return primitive.NilObjectID, errs.ErrInvalidIdentifier
	}
	return id, nil
}

// lookupError maps a GetStudentByID failure.
func lookupError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return errs.ErrNotFound
	}
	return errs.ErrInternal.Wrap(err)
}

func incompleteError(err error) error {
	if errors.Is(err, types.ErrIncompleteAddress) {
		return errs.ErrIncompleteRecord.WithDetail("Student address is incomplete")
	}
	return errs.ErrIncompleteRecord
}
