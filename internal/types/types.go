// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, schema, and every storage backend can import types without
// depending on each other.
package types

import "errors"

// Errors returned by StudentRecord.Student when a stored document is
// missing required data. Handlers map both to a 500: the record broke an
// invariant that creation is supposed to guarantee.
var (
	ErrIncompleteRecord  = errors.New("student data is incomplete")
	ErrIncompleteAddress = errors.New("student address is incomplete")
)

// Address is the postal location of a student. Both fields are required
// when a student is created.
type Address struct {
	City    string `json:"city"    bson:"city"`
	Country string `json:"country" bson:"country"`
}

// Student is a complete, validated student as accepted by the create
// endpoint and returned by the fetch endpoint.
type Student struct {
	Name    string  `json:"name"    bson:"name"`
	Age     int     `json:"age"     bson:"age"`
	Address Address `json:"address" bson:"address"`
}

// StudentSummary is the projection returned by the list endpoint:
// the address is intentionally left out.
type StudentSummary struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// StudentUpdate is a partial update. Only fields that are set are written
// to the store; absent fields are left untouched.
type StudentUpdate struct {
	Name    Optional[string]
	Age     Optional[int]
	Address Optional[Address]
}

// IsEmpty reports whether the update carries no fields at all.
func (u StudentUpdate) IsEmpty() bool {
	return !u.Name.IsSet() && !u.Age.IsSet() && !u.Address.IsSet()
}

// StudentFilter narrows the list endpoint.
//
// Country is an exact match on address.country; an empty string means no
// filter. MinAge, when non-nil, keeps records with age >= *MinAge.
type StudentFilter struct {
	Country string
	MinAge  *int
}

// StudentRecord is a student document exactly as the store holds it.
//
// The store is schemaless, so any field may be missing on a document that
// was written by something other than this service. Pointers make
// "missing" observable.
type StudentRecord struct {
	ID      string
	Name    *string
	Age     *int
	Address *AddressRecord
}

// AddressRecord is the stored form of Address.
type AddressRecord struct {
	City    *string
	Country *string
}

// Student converts the record into a complete Student, or returns
// ErrIncompleteRecord / ErrIncompleteAddress if anything required is
// missing.
func (r StudentRecord) Student() (Student, error) {
	if r.Name == nil || r.Age == nil || r.Address == nil {
		return Student{}, ErrIncompleteRecord
	}
	if r.Address.City == nil || r.Address.Country == nil {
		return Student{}, ErrIncompleteAddress
	}

	return Student{
		Name: *r.Name,
		Age:  *r.Age,
		Address: Address{
			City:    *r.Address.City,
			Country: *r.Address.Country,
		},
	}, nil
}

// Complete reports whether the record has every required field.
func (r StudentRecord) Complete() bool {
	_, err := r.Student()
	return err == nil
}

// RecordFromStudent builds the stored form of a complete student.
func RecordFromStudent(id string, s Student) StudentRecord {
	name, age := s.Name, s.Age
	city, country := s.Address.City, s.Address.Country

	return StudentRecord{
		ID:      id,
		Name:    &name,
		Age:     &age,
		Address: &AddressRecord{City: &city, Country: &country},
	}
}
