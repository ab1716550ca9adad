package domain

import "errors"

// Sentinel errors shared across packages.
var (
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrDimensionMismatch    = errors.New("vector dimension mismatch")
)
