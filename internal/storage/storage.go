package storage

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("not enough capacity available")
	ErrInvalidQuantity  = errors.New("invalid ticket quantity")
)
