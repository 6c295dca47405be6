package domain

import "errors"

var (
	// ErrNotFound indicates a mutation aimed at an id that does not exist.
	ErrNotFound = errors.New("card not found")
	// ErrInvalidInput indicates a rejected card field, such as an empty
	// question or an out-of-range difficulty.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoMatchingCards indicates a quiz start whose selection came back
	// empty. The caller should adjust the criteria, not treat it as fatal.
	ErrNoMatchingCards = errors.New("no cards match the quiz criteria")
)
