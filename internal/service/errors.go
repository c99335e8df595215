package service

import "errors"

var ErrNotFound = errors.New("not found")

var (
	ErrDecode     = errors.New("decode")
	ErrValidation = errors.New("validation")

	// ErrEscalated marks an order whose submission or CRM sync needs manual
	// intervention. The state is durably recorded before this is returned,
	// and the consumer must not retry it.
	ErrEscalated = errors.New("manual intervention required")
)
