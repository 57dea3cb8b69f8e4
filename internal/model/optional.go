package model

import (
	"bytes"
	"encoding/json"
)

// Optional is a patch field that tells "absent" apart from "explicitly null".
// The zero value is absent. Encode it with the `omitzero` option so absent
// fields are left out of the JSON.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some is an Optional holding v.
func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: &v} }

// Null is an Optional explicitly set to null.
func Null[T any]() Optional[T] { return Optional[T]{Set: true} }

// OptionalOf converts a pointer: nil becomes Null.
func OptionalOf[T any](p *T) Optional[T] { return Optional[T]{Set: true, Value: p} }

// IsZero reports whether the field is absent.
func (o Optional[T]) IsZero() bool { return !o.Set }

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
