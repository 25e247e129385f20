// Package schema decodes and validates request payloads before they reach
// the handlers' storage calls.
//
// Every failure is returned as errs.ErrValidation (HTTP 422) with a detail
// that lists each offending field, e.g.
//
//	field age is required, field address.city is required
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-records-api/internal/errs"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so messages match what
// the client actually sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Pointers let "required" tell a missing key from a zero value, so
// {"age": 0} and {"name": ""} are accepted.
type studentPayload struct {
	Name    *string         `json:"name"    validate:"required"`
	Age     *integer        `json:"age"     validate:"required"`
	Address *addressPayload `json:"address" validate:"required"`
}

type addressPayload struct {
	City    *string `json:"city"    validate:"required"`
	Country *string `json:"country" validate:"required"`
}

func (a addressPayload) address() types.Address {
	return types.Address{City: *a.City, Country: *a.Country}
}

// Address stays raw so its own decode errors can name address.<field>.
type updatePayload struct {
	Name    types.Optional[string]          `json:"name"`
	Age     types.Optional[integer]         `json:"age"`
	Address types.Optional[json.RawMessage] `json:"address"`
}

// integer is a JSON number with no fractional part: 20 and 20.0 both
// decode to 20, while 20.5 and "20" are rejected.
type integer int

func (n *integer) UnmarshalJSON(data []byte) error {
	s := string(data)
	if v, err := strconv.ParseInt(s, 10, 0); err == nil {
		*n = integer(v)
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= 1<<53 {
		return &json.UnmarshalTypeError{Value: s, Type: reflect.TypeOf(0)}
	}
	*n = integer(f)
	return nil
}

// DecodeStudent reads a creation payload.
func DecodeStudent(r io.Reader) (types.Student, error) {
	var p studentPayload
	if err := decode(r, &p); err != nil {
		return types.Student{}, err
	}

	if err := validate.Struct(p); err != nil {
		return types.Student{}, validationError(err, "")
	}

	return types.Student{
		Name:    *p.Name,
		Age:     int(*p.Age),
		Address: p.Address.address(),
	}, nil
}

// DecodeStudentUpdate reads a partial-update payload. All fields are
// optional, but a field that is present may not be null, and a present
// address must be complete. A payload with no recognised fields decodes
// successfully into an empty update; rejecting it is the caller's call.
func DecodeStudentUpdate(r io.Reader) (types.StudentUpdate, error) {
	var p updatePayload
	if err := decode(r, &p); err != nil {
		return types.StudentUpdate{}, err
	}

	var msgs []string
	for _, f := range []struct {
		name string
		null bool
	}{
		{"name", p.Name.IsNull()},
		{"age", p.Age.IsNull()},
		{"address", p.Address.IsNull()},
	} {
		if f.null {
			msgs = append(msgs, fmt.Sprintf("field %s may not be null", f.name))
		}
	}

	var update types.StudentUpdate
	if name, ok := p.Name.Get(); ok {
		update.Name = types.Some(name)
	}
	if age, ok := p.Age.Get(); ok {
		update.Age = types.Some(int(age))
	}
	if raw, ok := p.Address.Get(); ok {
		var addr addressPayload
		if err := decodeField(raw, &addr, "address"); err != nil {
			msgs = append(msgs, err.Error())
		} else if err := validate.Struct(addr); err != nil {
			msgs = append(msgs, fieldMessages(err, "address.")...)
		} else {
			update.Address = types.Some(addr.address())
		}
	}

	if len(msgs) > 0 {
		return types.StudentUpdate{}, errs.Validation(strings.Join(msgs, ", "))
	}

	return update, nil
}

// ParseMinAge reads the list endpoint's age query parameter. An empty
// value means no filter.
func ParseMinAge(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}

	age, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errs.Validation("query parameter age must be an integer")
	}
	return &age, nil
}

func decode(r io.Reader, v any) error {
	err := json.NewDecoder(r).Decode(v)
	if err == nil {
		return nil
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return errs.Validation("request body is empty")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return errs.Validation("request body is not valid JSON")
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return errs.Validation("request body must be a JSON object")
		}
		return errs.Validation(fmt.Sprintf("field %s must be %s", typeErr.Field, typeName(typeErr.Type)))
	default:
		return errs.Validation("request body could not be decoded").Wrap(err)
	}
}

// decodeField unmarshals the value of a nested field. The returned error
// is a plain message naming the field path, e.g.
//
//	field address.city must be a string
func decodeField(data []byte, v any, field string) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	path := field
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return fmt.Errorf("field %s is invalid", path)
	}
	if typeErr.Field != "" {
		path += "." + typeErr.Field
	}
	return fmt.Errorf("field %s must be %s", path, typeName(typeErr.Type))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return "a valid " + t.Kind().String()
	}
}

func validationError(err error, prefix string) error {
	return errs.Validation(strings.Join(fieldMessages(err, prefix), ", "))
}

// fieldMessages converts validator errors into one sentence per field.
func fieldMessages(err error, prefix string) []string {
	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(validateErrs))
	for _, e := range validateErrs {
		// Namespace is "<structName>.<json path>"; drop the struct name.
		_, path, found := strings.Cut(e.Namespace(), ".")
		if !found {
			path = e.Field()
		}
		path = prefix + path

		switch e.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", path))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is invalid", path))
		}
	}
	return msgs
}
