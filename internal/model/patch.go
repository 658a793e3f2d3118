package model

import (
	"bytes"
	"encoding/json"
)

// Opt is a patch field with three states: absent (leave the column alone),
// explicit null (clear it), and a value. The zero value means absent, so
// omitzero drops unset fields when a patch is marshaled.
type Opt[T any] struct {
	Set   bool
	Value *T
}

// Some returns a set Opt holding v.
func Some[T any](v T) Opt[T] { return Opt[T]{Set: true, Value: &v} }

// Null returns a set Opt holding explicit null.
func Null[T any]() Opt[T] { return Opt[T]{Set: true} }

func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// IsZero reports whether the field was absent from the patch body.
func (o Opt[T]) IsZero() bool { return !o.Set }
