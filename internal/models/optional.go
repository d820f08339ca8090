package models

import (
	"bytes"
	"encoding/json"
)

// Optional records whether a JSON field was present and whether it was null.
// A field that is absent from the payload leaves Set false.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Some builds a present, non-null value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null builds a present null value.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}
