package types

import (
	"bytes"
	"encoding/json"
)

// Optional is a tagged optional value for partial-update payloads.
//
// It distinguishes three states that a plain pointer cannot:
//
//	absent  — the key was not in the JSON object (zero Optional)
//	null    — the key was present with a JSON null
//	value   — the key was present with a value
//
// encoding/json only calls UnmarshalJSON for keys that are present, which
// is what makes "absent" detectable.
type Optional[T any] struct {
	value T
	set   bool
	null  bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// IsSet reports whether the key was present, with a value or null.
func (o Optional[T]) IsSet() bool { return o.set }

// IsNull reports whether the key was present with a JSON null.
func (o Optional[T]) IsNull() bool { return o.set && o.null }

// Get returns the value and whether a non-null value is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set && !o.null
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.null = true
		var zero T
		o.value = zero
		return nil
	}

	o.null = false
	return json.Unmarshal(data, &o.value)
}
