package core

import "errors"

var (
	// ErrEmptyText indicates a chunk with no text content.
	ErrEmptyText = errors.New("chunk text cannot be empty")

	// ErrMissingID indicates a chunk that has not been through AssignIDs.
	ErrMissingID = errors.New("chunk has no identifier")
)
