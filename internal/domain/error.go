package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrNoActivePass       = errors.New("no active access pass")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Purchase validation errors, rejected before any gateway call
	ErrPriceMismatch       = errors.New("amount does not match the configured pass price")
	ErrUnsupportedOperator = errors.New("unsupported mobile money operator")
	ErrInvalidPhone        = errors.New("invalid payer phone number")

	// Gateway errors
	ErrGatewayRejected    = errors.New("gateway rejected the operation")
	ErrGatewayUnavailable = errors.New("gateway unreachable")

	// Locking
	ErrLockNotAcquired = errors.New("could not acquire lock")
)
