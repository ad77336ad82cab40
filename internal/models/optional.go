package models

import (
	"bytes"
	"encoding/json"
)

// Optional различает три состояния поля в JSON: отсутствует, null и значение.
// Set == true означает, что ключ был в запросе; Value == nil означает null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some - присутствующее поле со значением
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null - присутствующее поле со значением null
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// FromPtr - присутствующее поле, nil превращается в null
func FromPtr[T any](v *T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Present - ключ есть и значение не null
func (o Optional[T]) Present() bool {
	return o.Set && o.Value != nil
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

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
