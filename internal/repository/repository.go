// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, memory) inside this directory.
// Lookups that match nothing return sql.ErrNoRows in every implementation.
package repository

import "errors"

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate key")

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
