// Package storage defines the Storage interface — the document-store
// contract that every backend must satisfy to work with this application.
//
// Handlers depend only on this interface, never on a concrete database.
// The backends live in sub-packages (mongodb, sqlite, memory) and are
// chosen once at startup from configuration.
//
// Identifiers are MongoDB ObjectIDs in every backend: 12 bytes, written
// as 24 hex characters. ParseID is the only way a handler turns a path
// segment into an identifier, so "malformed id" and "no such id" can
// never be confused.
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aanand-mishra/student-records-api/internal/types"
)

var (
	// ErrNotFound is returned by GetStudentByID when no document has the id.
	ErrNotFound = errors.New("student not found")

	// ErrInvalidID is returned by ParseID for strings that are not ObjectIDs.
	ErrInvalidID = errors.New("invalid student id")
)

// Storage is the document-store contract.
type Storage interface {
	// CreateStudent inserts a new document and returns its generated id.
	CreateStudent(ctx context.Context, student types.Student) (string, error)

	// GetStudents returns the documents matching filter in store order.
	// Documents are returned as stored, including incomplete ones.
	GetStudents(ctx context.Context, filter types.StudentFilter) ([]types.StudentRecord, error)

	// GetStudentByID returns one document or ErrNotFound.
	GetStudentByID(ctx context.Context, id primitive.ObjectID) (types.StudentRecord, error)

	// UpdateStudentByID sets only the fields present in update and returns
	// the number of documents modified. Zero means either no document has
	// the id or every supplied value equals the stored one.
	UpdateStudentByID(ctx context.Context, id primitive.ObjectID, update types.StudentUpdate) (int64, error)

	// DeleteStudentByID removes a document and returns the number deleted.
	DeleteStudentByID(ctx context.Context, id primitive.ObjectID) (int64, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// ParseID parses the store's native identifier format.
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

// NewID generates a fresh identifier for backends that do not assign one
// themselves.
func NewID() primitive.ObjectID {
	return primitive.NewObjectID()
}
