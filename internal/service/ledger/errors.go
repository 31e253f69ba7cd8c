package ledger

import "errors"

// Validation failures.
var (
	ErrInvalidItem       = errors.New("item code and name are required")
	ErrNegativeStock     = errors.New("stock cannot be negative")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInvalidSource     = errors.New("incoming source must be EXPEDITION or RETURN")
	ErrMissingDetail     = errors.New("expedition number or return reason is required")
	ErrUnknownItem       = errors.New("item not found")
	ErrUnknownItemCode   = errors.New("item code not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyBatch        = errors.New("batch is empty")
)

// ErrItemHasHistory refuses deleting an item referenced by stock events.
var ErrItemHasHistory = errors.New("item has transaction history and cannot be deleted")

// ErrBatchAborted wraps a write failure part-way through a batch after the
// rows already written have been rolled back.
var ErrBatchAborted = errors.New("batch aborted")
