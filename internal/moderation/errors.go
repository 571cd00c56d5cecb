package moderation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// InvalidTransitionError means the requested status change is not in the
// entity type's transition table. The entity is left untouched.
type InvalidTransitionError struct {
	EntityType EntityType
	From       string
	To         string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.EntityType, e.From, e.To)
}

type EntityNotFoundError struct {
	EntityType EntityType
	ID         uint
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.EntityType, e.ID)
}

// ConcurrentModificationError means another transition won the race after
// the status pre-read. Safe to refresh and retry once.
type ConcurrentModificationError struct {
	EntityType EntityType
	ID         uint
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s %d was modified concurrently, refresh and retry", e.EntityType, e.ID)
}

type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// coerceStoreError maps gorm/context failures onto the moderation taxonomy.
func coerceStoreError(op string, entityType EntityType, id uint, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &EntityNotFoundError{EntityType: entityType, ID: id}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &TimeoutError{Op: op, Err: err}
	default:
		return err
	}
}
