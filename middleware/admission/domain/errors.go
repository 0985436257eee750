package domain

import "errors"

var (
	// ErrEmptyQuotas volta quando nenhuma rota foi configurada.
	ErrEmptyQuotas = errors.New("quota table is empty")

	ErrInvalidQuota = errors.New("invalid quota")
	ErrInvalidMode  = errors.New("invalid admission mode")

	// ErrMissingStoreTarget volta no modo shared sem endereço do store.
	ErrMissingStoreTarget = errors.New("shared mode requires a store connection target")

	// ErrStoreUnavailable embrulha falhas de transporte e timeouts do store
	// compartilhado. Nunca vira uma recusa.
	ErrStoreUnavailable = errors.New("counter store unavailable")
)
