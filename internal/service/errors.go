package service

import "errors"

var (
	ErrNotStarted     = errors.New("sync orchestrator is not started")
	ErrAlreadyStarted = errors.New("sync orchestrator is already started")
	ErrWorkerStopped  = errors.New("sync worker stopped")

	// ErrLocalStoreEmpty is the guard's refusal reason.
	ErrLocalStoreEmpty = errors.New("local store is empty: refusing to touch remote data")

	ErrNoBackups       = errors.New("no backups available")
	ErrNilImport       = errors.New("validation: import data is missing")
)

var (
	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = errors.New("authentication: token is expired or not accepted")
	ErrVersionIsNotSpecified   = errors.New("app version is not specified")
	ErrInvalidDocumentPath     = errors.New("validation: invalid document path")
	ErrInvalidBudgetID         = errors.New("validation: invalid budget id")
)
