// Package csync provides small concurrency-safe containers.
package csync

import (
	"fmt"
	"reflect"
	"sync"
)

// Value guards a single value of a non-pointer type behind a mutex.
type Value[T any] struct {
	mu sync.RWMutex
	v  T
}

// NewValue creates a new [Value] holding v.
//
// It panics if T is a pointer-like kind (pointer, slice, map, channel or
// function): copies of those still alias the underlying data, so the guard
// would protect nothing.
func NewValue[T any](v T) *Value[T] {
	switch reflect.TypeOf(&v).Elem().Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		panic(fmt.Sprintf("csync.NewValue: pointer-like type %T", v))
	}
	return &Value[T]{v: v}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.v
}

// Set replaces the current value.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.v = val
}
